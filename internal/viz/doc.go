// Package viz is the terminal watch view of a reactor run, built on Bubble
// Tea. A [Feed] observes the simulator and sends [StepMsg] values to the
// [Model], which draws progress, relative power, reactivity and node
// temperatures. [Watch] wires the two together.
//
// # Key Bindings
//
//	Q - Stop the run and quit
//	T - Cycle color themes
//	A - Show all nodes instead of the hottest
//	? - Toggle help
package viz
