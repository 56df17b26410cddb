// Package script drives an emulator from a Starlark program.
//
// Builtins:
//
//	step(n=1)     run n instructions
//	frame(n=1)    run n timer periods (instructions, timer tick, render)
//	tick(n=1)     tick the delay and sound timers n times
//	press(k)      queue a key down event for keypad index k
//	release(k)    queue a key up event for keypad index k
//	reset()       restart the loaded program
//	reg(x)        value of register Vx
//	index()       value of the index register
//	pc()          value of the program counter
//	delay()       value of the delay timer
//	sound()       value of the sound timer
//	pixel(x, y)   True if the display pixel is lit
//	screen()      display as text, '#' lit and '.' dark
//
// Output from print() goes to the log. A machine fault stops the script.
package script
