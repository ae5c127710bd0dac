package tour

// permute calls visit with every ordering of items using Heap's algorithm.
// The slice passed to visit is reused; visit returns false to stop.
func permute[T any](items []T, visit func([]T) bool) {
	a := append([]T(nil), items...)
	n := len(a)
	if !visit(a) {
		return
	}
	c := make([]int, n)
	for i := 0; i < n; {
		if c[i] < i {
			if i%2 == 0 {
				a[0], a[i] = a[i], a[0]
			} else {
				a[c[i]], a[i] = a[i], a[c[i]]
			}
			if !visit(a) {
				return
			}
			c[i]++
			i = 0
			continue
		}
		c[i] = 0
		i++
	}
}
