package cpu

// operands are the fields every opcode is split into, whether the
// instruction uses them or not
type operands struct {
	nnn uint16 //address, low 12 bits
	x   uint8  //register, bits 8-11
	y   uint8  //register, bits 4-7
	n   uint8  //nibble, bits 0-3
	kk  uint8  //byte, low 8 bits
}

func decode(opcode uint16) operands {
	return operands{
		nnn: opcode & 0x0FFF,
		x:   uint8(opcode>>8) & 0xF,
		y:   uint8(opcode>>4) & 0xF,
		n:   uint8(opcode) & 0xF,
		kk:  uint8(opcode),
	}
}

// instruction is one row of the decode table. An opcode matches when
// opcode&mask == pattern. args is the operand template used by Disassemble.
type instruction struct {
	mask    uint16
	pattern uint16
	name    string
	args    string
	exec    func(c *CPU, op operands) error
}

// instructions is checked top to bottom, the first match wins. SYS has to
// stay behind CLS and RET.
var instructions = [...]instruction{
	{0xFFFF, 0x00E0, "cls", "", (*CPU).cls},
	{0xFFFF, 0x00EE, "ret", "", (*CPU).ret},
	{0xF000, 0x0000, "sys", "$nnn", (*CPU).sys},
	{0xF000, 0x1000, "jp", "$nnn", (*CPU).jp},
	{0xF000, 0x2000, "call", "$nnn", (*CPU).call},
	{0xF000, 0x3000, "se", "Vx, $kk", (*CPU).seByte},
	{0xF000, 0x4000, "sne", "Vx, $kk", (*CPU).sneByte},
	{0xF000, 0x5000, "se", "Vx, Vy", (*CPU).seReg},
	{0xF000, 0x6000, "ld", "Vx, $kk", (*CPU).ldByte},
	{0xF000, 0x7000, "add", "Vx, $kk", (*CPU).addByte},
	{0xF00F, 0x8000, "ld", "Vx, Vy", (*CPU).ldReg},
	{0xF00F, 0x8001, "or", "Vx, Vy", (*CPU).or},
	{0xF00F, 0x8002, "and", "Vx, Vy", (*CPU).and},
	{0xF00F, 0x8003, "xor", "Vx, Vy", (*CPU).xor},
	{0xF00F, 0x8004, "add", "Vx, Vy", (*CPU).addReg},
	{0xF00F, 0x8005, "sub", "Vx, Vy", (*CPU).sub},
	{0xF00F, 0x8006, "shr", "Vx", (*CPU).shr},
	{0xF00F, 0x8007, "subn", "Vx, Vy", (*CPU).subn},
	{0xF00F, 0x800E, "shl", "Vx", (*CPU).shl},
	{0xF00F, 0x9000, "sne", "Vx, Vy", (*CPU).sneReg},
	{0xF000, 0xA000, "ld", "I, $nnn", (*CPU).ldI},
	{0xF000, 0xB000, "jp", "V0, $nnn", (*CPU).jpV0},
	{0xF000, 0xC000, "rnd", "Vx, $kk", (*CPU).rnd},
	{0xF000, 0xD000, "drw", "Vx, Vy, $n", (*CPU).drw},
	{0xF0FF, 0xE09E, "skp", "Vx", (*CPU).skp},
	{0xF0FF, 0xE0A1, "sknp", "Vx", (*CPU).sknp},
	{0xF0FF, 0xF007, "ld", "Vx, DT", (*CPU).ldVxDT},
	{0xF0FF, 0xF00A, "ld", "Vx, K", (*CPU).ldVxK},
	{0xF0FF, 0xF015, "ld", "DT, Vx", (*CPU).ldDTVx},
	{0xF0FF, 0xF018, "ld", "ST, Vx", (*CPU).ldSTVx},
	{0xF0FF, 0xF01E, "add", "I, Vx", (*CPU).addI},
	{0xF0FF, 0xF029, "ld", "F, Vx", (*CPU).ldF},
	{0xF0FF, 0xF033, "ld", "B, Vx", (*CPU).ldB},
	{0xF0FF, 0xF055, "ld", "[I], Vx", (*CPU).store},
	{0xF0FF, 0xF065, "ld", "Vx, [I]", (*CPU).load},
}

func lookup(opcode uint16) (instruction, bool) {
	for _, ins := range instructions {
		if opcode&ins.mask == ins.pattern {
			return ins, true
		}
	}
	return instruction{}, false
}

//00E0
func (c *CPU) cls(operands) error {
	c.display.Clear()
	return nil
}

//00EE
func (c *CPU) ret(operands) error {
	if c.sp == 0 {
		return ErrStackUnderflow
	}
	c.sp--
	c.pc = c.stack[c.sp]
	return nil
}

// 0nnn jumped to machine code on the original hardware, interpreters ignore it
func (c *CPU) sys(operands) error {
	return nil
}

//1nnn
func (c *CPU) jp(op operands) error {
	c.pc = op.nnn
	return nil
}

//2nnn
func (c *CPU) call(op operands) error {
	if int(c.sp) >= StackSize {
		return ErrStackOverflow
	}
	c.stack[c.sp] = c.pc
	c.sp++
	c.pc = op.nnn
	return nil
}

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.pc += 2
	}
}

//3xkk
func (c *CPU) seByte(op operands) error {
	c.skipIf(c.V[op.x] == op.kk)
	return nil
}

//4xkk
func (c *CPU) sneByte(op operands) error {
	c.skipIf(c.V[op.x] != op.kk)
	return nil
}

//5xy0, the low nibble is not checked
func (c *CPU) seReg(op operands) error {
	c.skipIf(c.V[op.x] == c.V[op.y])
	return nil
}

//6xkk
func (c *CPU) ldByte(op operands) error {
	c.V[op.x] = op.kk
	return nil
}

// 7xkk wraps silently, VF is untouched
func (c *CPU) addByte(op operands) error {
	c.V[op.x] += op.kk
	return nil
}

//8xy0
func (c *CPU) ldReg(op operands) error {
	c.V[op.x] = c.V[op.y]
	return nil
}

//8xy1
func (c *CPU) or(op operands) error {
	c.V[op.x] |= c.V[op.y]
	return nil
}

//8xy2
func (c *CPU) and(op operands) error {
	c.V[op.x] &= c.V[op.y]
	return nil
}

//8xy3
func (c *CPU) xor(op operands) error {
	c.V[op.x] ^= c.V[op.y]
	return nil
}

// The flag setting ALU ops below write Vx first and VF last, so with x == F
// the flag is what remains in VF.

// 8xy4, VF = carry
func (c *CPU) addReg(op operands) error {
	sum := uint16(c.V[op.x]) + uint16(c.V[op.y])
	c.V[op.x] = uint8(sum)
	c.V[0xF] = flag(sum > 0xFF)
	return nil
}

// 8xy5, VF = NOT borrow
func (c *CPU) sub(op operands) error {
	vx, vy := c.V[op.x], c.V[op.y]
	c.V[op.x] = vx - vy
	c.V[0xF] = flag(vx >= vy)
	return nil
}

// 8xy6, VF = bit shifted out. Vy is ignored.
func (c *CPU) shr(op operands) error {
	vx := c.V[op.x]
	c.V[op.x] = vx >> 1
	c.V[0xF] = vx & 0x01
	return nil
}

// 8xy7, VF = NOT borrow
func (c *CPU) subn(op operands) error {
	vx, vy := c.V[op.x], c.V[op.y]
	c.V[op.x] = vy - vx
	c.V[0xF] = flag(vy >= vx)
	return nil
}

// 8xyE, VF = bit shifted out. Vy is ignored.
func (c *CPU) shl(op operands) error {
	vx := c.V[op.x]
	c.V[op.x] = vx << 1
	c.V[0xF] = vx >> 7
	return nil
}

//9xy0
func (c *CPU) sneReg(op operands) error {
	c.skipIf(c.V[op.x] != c.V[op.y])
	return nil
}

//Annn
func (c *CPU) ldI(op operands) error {
	c.I = op.nnn
	return nil
}

//Bnnn
func (c *CPU) jpV0(op operands) error {
	c.pc = op.nnn + uint16(c.V[0])
	return nil
}

//Cxkk
func (c *CPU) rnd(op operands) error {
	c.V[op.x] = uint8(c.rng.Intn(256)) & op.kk
	return nil
}

// Dxyn draws n rows read from I, VF = collision
func (c *CPU) drw(op operands) error {
	sprite := make([]byte, op.n)
	for j := range sprite {
		sprite[j] = c.Memory(c.I + uint16(j))
	}
	collision := c.display.DrawSprite(int(c.V[op.x]), int(c.V[op.y]), sprite)
	c.V[0xF] = flag(collision)
	return nil
}

//Ex9E
func (c *CPU) skp(op operands) error {
	c.skipIf(c.keyboard.IsPressed(c.V[op.x]))
	return nil
}

//ExA1
func (c *CPU) sknp(op operands) error {
	c.skipIf(!c.keyboard.IsPressed(c.V[op.x]))
	return nil
}

//Fx07
func (c *CPU) ldVxDT(op operands) error {
	c.V[op.x] = c.delayTimer
	return nil
}

// Fx0A takes a key that is already down straight away. Otherwise the pc is
// put back on this instruction and Step polls the keypad until one is.
func (c *CPU) ldVxK(op operands) error {
	if keys := c.keyboard.Pressed(); len(keys) > 0 {
		c.V[op.x] = keys[0]
		return nil
	}
	c.pc -= 2
	c.awaitingKey = true
	c.keyRegister = op.x
	return nil
}

//Fx15
func (c *CPU) ldDTVx(op operands) error {
	c.delayTimer = c.V[op.x]
	return nil
}

//Fx18
func (c *CPU) ldSTVx(op operands) error {
	c.soundTimer = c.V[op.x]
	return nil
}

//Fx1E
func (c *CPU) addI(op operands) error {
	c.I += uint16(c.V[op.x])
	return nil
}

// Fx29, only the low nibble of Vx selects the glyph
func (c *CPU) ldF(op operands) error {
	c.I = uint16(c.V[op.x]&0xF) * GlyphSize
	return nil
}

// Fx33 stores hundreds, tens and ones of Vx at I, I+1, I+2
func (c *CPU) ldB(op operands) error {
	vx := c.V[op.x]
	c.setMemory(c.I, vx/100)
	c.setMemory(c.I+1, vx/10%10)
	c.setMemory(c.I+2, vx%10)
	return nil
}

// Fx55 copies V0..Vx inclusive to memory at I, I is unchanged
func (c *CPU) store(op operands) error {
	for r := uint16(0); r <= uint16(op.x); r++ {
		c.setMemory(c.I+r, c.V[r])
	}
	return nil
}

// Fx65 fills V0..Vx inclusive from memory at I, I is unchanged
func (c *CPU) load(op operands) error {
	for r := uint16(0); r <= uint16(op.x); r++ {
		c.V[r] = c.Memory(c.I + r)
	}
	return nil
}

// memory accesses through I wrap at the 4K boundary
func (c *CPU) setMemory(addr uint16, value uint8) {
	c.memory[addr&0xFFF] = value
}

func flag(set bool) uint8 {
	if set {
		return 1
	}
	return 0
}
