/*

Process of compilation

Syntax Tree (ast, loaded from yaml) ->
	analyze ->
Resolved Types, Symbol Tables, Diagnostics ->
	generate ->
LLVM Module (ir + debug info) ->
	verify, emit ->
Binary Object (obj) ->
	link ->
Binary Executable

*/
package compiler
