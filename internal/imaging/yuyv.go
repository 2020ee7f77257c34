package imaging

import (
	"fmt"
	"image"
)

// FromYUYV converts a packed YUYV 4:2:2 frame, as delivered by most V4L2
// webcams, into an image.
func FromYUYV(frame []byte, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 || width%2 != 0 {
		return nil, fmt.Errorf("invalid yuyv geometry %dx%d", width, height)
	}
	if len(frame) < width*height*2 {
		return nil, fmt.Errorf("short yuyv frame: got %d bytes, want %d", len(frame), width*height*2)
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)
	for y := 0; y < height; y++ {
		row := frame[y*width*2 : (y+1)*width*2]
		for x := 0; x < width; x += 2 {
			i := x * 2
			img.Y[y*img.YStride+x] = row[i]
			img.Y[y*img.YStride+x+1] = row[i+2]
			ci := y*img.CStride + x/2
			img.Cb[ci] = row[i+1]
			img.Cr[ci] = row[i+3]
		}
	}

	return img, nil
}
