package cmd

import (
	"os"
	"runtime"
)

// openTerminalIOFn is swapped in tests.
var openTerminalIOFn = openTerminalIO

func openTerminalIO() (*os.File, *os.File, error) {
	in, out := terminalDeviceNames(runtime.GOOS)

	input, err := os.OpenFile(in, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}

	if out == "" || out == in {
		return input, input, nil
	}

	output, err := os.OpenFile(out, os.O_RDWR, 0)
	if err != nil {
		_ = input.Close()
		return nil, nil, err
	}

	return input, output, nil
}

func closeTerminalIO(in, out *os.File) {
	_ = in.Close()
	if out != nil && out != in {
		_ = out.Close()
	}
}

func terminalDeviceNames(goos string) (input string, output string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}

	return "/dev/tty", "/dev/tty"
}
