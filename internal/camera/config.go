package camera

import "time"

// WebcamConfig bounds the negotiated capture size and the frame wait.
type WebcamConfig struct {
	MaxWidth     int
	MaxHeight    int
	FrameTimeout time.Duration
	// MaxTimeouts consecutive frame waits without data fail the stream
	MaxTimeouts int
}

func DefaultWebcamConfig() WebcamConfig {
	return WebcamConfig{
		MaxWidth:     1280,
		MaxHeight:    720,
		FrameTimeout: 2 * time.Second,
		MaxTimeouts:  5,
	}
}

func (c WebcamConfig) withDefaults() WebcamConfig {
	d := DefaultWebcamConfig()
	if c.MaxWidth <= 0 {
		c.MaxWidth = d.MaxWidth
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = d.MaxHeight
	}
	if c.FrameTimeout < time.Second {
		c.FrameTimeout = d.FrameTimeout
	}
	if c.MaxTimeouts <= 0 {
		c.MaxTimeouts = d.MaxTimeouts
	}
	return c
}
