// Package launcher finds the installed Junie binary and runs it in place of
// the current process.
//
// Resolution order:
//
//  1. JUNIE_BINARY_PATH or JUNIE_BINARY
//  2. the path recorded in the marker file by the installer
//  3. the default path for the host OS inside the working directory
//
// The first candidate that exists wins. When none does, Resolve returns a
// *BinaryNotFoundError carrying everything needed to diagnose the install.
package launcher
