package allocator

import "math/rand"

// Shuffle 使用 Fisher-Yates 洗牌算法返回 s 的一个随机排列，不会修改 s 本身
func Shuffle[T any](rng *rand.Rand, s []T) []T {
	arr := append([]T{}, s...)

	for i := len(arr) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		arr[i], arr[j] = arr[j], arr[i]
	}

	return arr
}
