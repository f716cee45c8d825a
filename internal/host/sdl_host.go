package host

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"anotherworld/internal/debug"
	"anotherworld/internal/video"
)

// SDLHost implements Host on top of github.com/veandco/go-sdl2: a
// resizable window sized width*scale x height*scale, a streaming
// 8-bit-indexed-to-RGB texture updated every Present, a queued AUDIO_S8
// device, and GetKeyboardState polling mapped to the original's
// arrows/space/return/letters control scheme. This mirrors the teacher's
// internal/ui SDL2 usage (keyboard scancode polling, queued audio,
// streaming texture blit) adapted from a cycle-driven console frontend
// to this frame-driven one.
type SDLHost struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	width, height int
	scale         int
	scanlines     bool

	palette  [16]video.Color
	audioDev sdl.AudioDeviceID

	logger *debug.Logger
}

// NewSDLHost opens a window sized width*scale x height*scale and
// initializes SDL video/audio/event subsystems.
func NewSDLHost(title string, width, height, scale int, scanlines bool, logger *debug.Logger) (*SDLHost, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("host: sdl init: %w", err)
	}

	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width*scale), int32(height*scale), sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, fmt.Errorf("host: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, fmt.Errorf("host: create renderer: %w", err)
	}

	tex, err := renderer.CreateTexture(sdl.PIXELFORMAT_RGB888, sdl.TEXTUREACCESS_STREAMING, int32(width), int32(height))
	if err != nil {
		return nil, fmt.Errorf("host: create texture: %w", err)
	}

	return &SDLHost{
		window:    win,
		renderer:  renderer,
		texture:   tex,
		width:     width,
		height:    height,
		scale:     scale,
		scanlines: scanlines,
		logger:    logger,
	}, nil
}

func (h *SDLHost) logf(level debug.LogLevel, format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.LogHostf(level, format, args...)
	}
}

// NowMillis returns SDL's monotonic millisecond tick count.
func (h *SDLHost) NowMillis() uint64 {
	return uint64(sdl.GetTicks64())
}

// Sleep delays the calling goroutine by ms milliseconds.
func (h *SDLHost) Sleep(ms uint64) {
	sdl.Delay(uint32(ms))
}

// SetPalette stores the active 16-color palette used to expand paletted
// pages into RGB888 at Present time.
func (h *SDLHost) SetPalette(colors [16]video.Color) {
	h.palette = colors
}

// Present expands frame (one palette index per byte) into RGB888 and
// streams it to the window, applying a scanline overlay if enabled.
func (h *SDLHost) Present(frame []byte, width, height int) error {
	pixels, pitch, err := h.texture.Lock(nil)
	if err != nil {
		return fmt.Errorf("host: lock texture: %w", err)
	}
	for y := 0; y < height; y++ {
		rowShade := uint8(0xFF)
		if h.scanlines && y%2 == 1 {
			rowShade = 0xC0
		}
		for x := 0; x < width; x++ {
			c := h.palette[frame[y*width+x]&0x0F]
			o := y*pitch + x*4
			pixels[o+0] = scaleShade(c.B, rowShade)
			pixels[o+1] = scaleShade(c.G, rowShade)
			pixels[o+2] = scaleShade(c.R, rowShade)
			pixels[o+3] = 0xFF
		}
	}
	h.texture.Unlock()

	h.renderer.Clear()
	h.renderer.Copy(h.texture, nil, nil)
	h.renderer.Present()
	return nil
}

func scaleShade(channel, shade uint8) uint8 {
	return uint8(uint16(channel) * uint16(shade) / 0xFF)
}

// PollInput pumps the SDL event queue (to pick up window-close) and
// samples the keyboard state once, mapping it onto the original's
// directional/action/password-entry control scheme.
func (h *SDLHost) PollInput() InputState {
	sdl.PumpEvents()

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			quit = true
		}
	}

	keys := sdl.GetKeyboardState()
	var dir uint8
	if keys[sdl.SCANCODE_UP] != 0 {
		dir |= DirUp
	}
	if keys[sdl.SCANCODE_DOWN] != 0 {
		dir |= DirDown
	}
	if keys[sdl.SCANCODE_LEFT] != 0 {
		dir |= DirLeft
	}
	if keys[sdl.SCANCODE_RIGHT] != 0 {
		dir |= DirRight
	}

	button := keys[sdl.SCANCODE_SPACE] != 0 || keys[sdl.SCANCODE_RETURN] != 0
	code := keys[sdl.SCANCODE_C] != 0
	if keys[sdl.SCANCODE_ESCAPE] != 0 {
		quit = true
	}

	var lastChar byte
	if keys[sdl.SCANCODE_BACKSPACE] != 0 {
		lastChar = '\b'
	} else {
		for sc := sdl.SCANCODE_A; sc <= sdl.SCANCODE_Z; sc++ {
			if keys[sc] != 0 {
				lastChar = byte('A' + (sc - sdl.SCANCODE_A))
				break
			}
		}
	}

	return InputState{Dir: dir, Button: button, Code: code, Quit: quit, LastChar: lastChar}
}

// OpenAudio opens an AUDIO_S8 queued-audio device at rate/channels and
// returns a sink wrapping it.
func (h *SDLHost) OpenAudio(rate, channels int) (AudioSink, error) {
	spec := sdl.AudioSpec{
		Freq:     int32(rate),
		Format:   sdl.AUDIO_S8,
		Channels: uint8(channels),
		Samples:  1024,
	}
	dev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		h.logf(debug.LogLevelError, "open audio device: %v", err)
		return nil, fmt.Errorf("host: open audio: %w", err)
	}
	sdl.PauseAudioDevice(dev, false)
	h.audioDev = dev
	return &sdlAudioSink{dev: dev}, nil
}

// Close tears down the window, renderer, texture, and SDL subsystems.
func (h *SDLHost) Close() {
	h.texture.Destroy()
	h.renderer.Destroy()
	h.window.Destroy()
	sdl.Quit()
}

type sdlAudioSink struct {
	dev sdl.AudioDeviceID
}

// QueueAudio pushes samples to the device, dropping the backlog first if
// it has grown past a couple of buffers to avoid unbounded latency.
func (s *sdlAudioSink) QueueAudio(samples []int8) error {
	if sdl.GetQueuedAudioSize(s.dev) > uint32(len(samples))*4 {
		sdl.ClearQueuedAudio(s.dev)
	}
	return sdl.QueueAudio(s.dev, int8SliceToBytes(samples))
}

func (s *sdlAudioSink) Close() error {
	sdl.CloseAudioDevice(s.dev)
	return nil
}

func int8SliceToBytes(samples []int8) []byte {
	out := make([]byte, len(samples))
	for i, s := range samples {
		out[i] = byte(s)
	}
	return out
}
