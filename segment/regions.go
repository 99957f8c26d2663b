// path: segment/regions.go
package segment

// ExtractRegions labels 8-connected components of the mask and returns one
// Region per blob with at least minArea pixels, left-to-right top-to-bottom.
func ExtractRegions(m *Mask, minArea int) []Region {
	if m == nil || len(m.Pix) == 0 {
		return nil
	}
	if minArea < 1 {
		minArea = 1
	}

	visited := make([]bool, len(m.Pix))
	var regions []Region

	// 8-connectivity offsets
	dx := []int{-1, 0, 1, -1, 1, -1, 0, 1}
	dy := []int{-1, -1, -1, 0, 0, 1, 1, 1}

	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			idx := y*m.W + x
			if visited[idx] || m.Pix[idx] == 0 {
				continue
			}

			// flood fill from (x, y)
			minX, minY, maxX, maxY := x, y, x, y
			area := 0
			var sumX, sumY int64
			stack := []int{idx}
			visited[idx] = true

			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				cx, cy := cur%m.W, cur/m.W

				area++
				sumX += int64(cx)
				sumY += int64(cy)
				if cx < minX {
					minX = cx
				}
				if cy < minY {
					minY = cy
				}
				if cx > maxX {
					maxX = cx
				}
				if cy > maxY {
					maxY = cy
				}

				for k := 0; k < 8; k++ {
					nx, ny := cx+dx[k], cy+dy[k]
					if nx < 0 || ny < 0 || nx >= m.W || ny >= m.H {
						continue
					}
					nidx := ny*m.W + nx
					if !visited[nidx] && m.Pix[nidx] != 0 {
						visited[nidx] = true
						stack = append(stack, nidx)
					}
				}
			}

			if area >= minArea {
				regions = append(regions, Region{
					X:         minX,
					Y:         minY,
					Width:     maxX - minX + 1,
					Height:    maxY - minY + 1,
					Area:      area,
					CentroidX: float64(sumX) / float64(area),
					CentroidY: float64(sumY) / float64(area),
				})
			}
		}
	}

	return regions
}

// CountRegions returns the number of blobs with at least minArea pixels.
func CountRegions(m *Mask, minArea int) int {
	return len(ExtractRegions(m, minArea))
}
