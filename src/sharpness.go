package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Turn a luminance frame into one sharpness scalar.
 *
 * Description:	The autofocus only needs relative ordering: more
 *		high-frequency energy means a sharper image.  We crop
 *		a centered 200x200 window out of the luminance plane,
 *		run a 3x3 Laplacian, clamp negative responses to zero
 *		(16-bit unsigned convolution, as the original pipeline
 *		did) and average.
 *
 *		A frame too small to hold the crop yields 0, which the
 *		AF gate reads as "no sample this frame".
 *
 *---------------------------------------------------------------*/

const focusCropSize = 200

/*-------------------------------------------------------------------
 *
 * Name:	laplacianMean
 *
 * Purpose:	Compute the focus value for one frame.
 *
 * Inputs:	frame	- Byte-mapped luminance plane, row-major.
 *		width	- Frame width in pixels.
 *		height	- Frame height in pixels.
 *
 * Returns:	Mean Laplacian response over the centered crop.
 *		Deterministic on identical input, nonnegative, and 0
 *		when the buffer cannot hold the crop.
 *
 *--------------------------------------------------------------------*/

func laplacianMean(frame []byte, width int, height int) float32 {
	var half = focusCropSize / 2

	var cx = width / 2
	var cy = height / 2

	var x0 = cx - half
	var y0 = cy - half
	var x1 = cx + half
	var y1 = cy + half

	if x0 < 0 || y0 < 0 || x1 > width || y1 > height {
		return 0
	}
	if len(frame) < width*height {
		return 0
	}

	var sum uint64

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			/* Neighbours come from the full frame; at the frame
			 * edge the border pixel is replicated, so every
			 * crop pixel contributes one response. */
			var up = y - 1
			var down = y + 1
			var left = x - 1
			var right = x + 1
			if up < 0 {
				up = 0
			}
			if down >= height {
				down = height - 1
			}
			if left < 0 {
				left = 0
			}
			if right >= width {
				right = width - 1
			}

			var center = int(frame[y*width+x])
			var response = int(frame[up*width+x]) +
				int(frame[down*width+x]) +
				int(frame[y*width+left]) +
				int(frame[y*width+right]) -
				4*center

			if response < 0 {
				response = 0
			}
			sum += uint64(response)
		}
	}

	return float32(sum) / float32(focusCropSize*focusCropSize)
}
