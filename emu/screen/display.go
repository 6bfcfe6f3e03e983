package screen

const (
	Width  = 64
	Height = 32
)

// Framebuffer is the row-major pixel grid, index = x + y*Width.
type Framebuffer [Width * Height]bool

// Display is the monochrome CHIP-8 screen. Coordinates wrap around both edges.
type Display struct {
	pixels Framebuffer
	redraw bool //set by every clear or draw, cleared by the presenter
}

func NewDisplay() *Display {
	return &Display{}
}

// Clear turns every pixel off.
func (d *Display) Clear() {
	d.pixels = Framebuffer{}
	d.redraw = true
}

func (d *Display) Pixel(x, y int) bool {
	return d.pixels[index(x, y)]
}

func (d *Display) SetPixel(x, y int, on bool) {
	d.pixels[index(x, y)] = on
}

// DrawSprite XORs sprite onto the screen with its top left corner at (x, y).
// Every byte is one 8 pixel row, most significant bit leftmost. It reports
// whether any pixel that was on got switched off.
func (d *Display) DrawSprite(x, y int, sprite []byte) bool {
	collision := false
	for j, row := range sprite {
		for i := 0; i < 8; i++ {
			if row&(0x80>>i) == 0 {
				continue
			}
			idx := index(x+i, y+j)
			if d.pixels[idx] {
				collision = true
			}
			d.pixels[idx] = !d.pixels[idx]
		}
	}
	d.redraw = true
	return collision
}

// NeedsRedraw tells whether the screen changed since the last Presented call.
func (d *Display) NeedsRedraw() bool {
	return d.redraw
}

func (d *Display) Presented() {
	d.redraw = false
}

// Framebuffer returns a copy of the pixel grid.
func (d *Display) Framebuffer() Framebuffer {
	return d.pixels
}

func index(x, y int) int {
	x %= Width
	if x < 0 {
		x += Width
	}
	y %= Height
	if y < 0 {
		y += Height
	}
	return x + y*Width
}
