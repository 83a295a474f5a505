package segmentation

// labelComponents assigns a positive label to every 8-connected foreground
// component of the binary grid. Background cells stay 0. Returns the label
// grid and the number of components found.
func labelComponents(binary []bool, width, height int) ([]int, int) {
	labels := make([]int, len(binary))
	next := 0

	dx := [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := [8]int{-1, -1, -1, 0, 0, 1, 1, 1}

	queue := make([]int, 0, 1024)
	for start := range binary {
		if !binary[start] || labels[start] != 0 {
			continue
		}
		next++
		labels[start] = next
		queue = append(queue[:0], start)

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			cx := idx % width
			cy := idx / width
			for k := 0; k < 8; k++ {
				nx := cx + dx[k]
				ny := cy + dy[k]
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				nidx := ny*width + nx
				if binary[nidx] && labels[nidx] == 0 {
					labels[nidx] = next
					queue = append(queue, nidx)
				}
			}
		}
	}
	return labels, next
}
