package shell

import (
	"fmt"
	"strings"

	"vshell/internal/vfs"
)

func commandMap() map[string]command {
	return map[string]command{
		"pwd": {
			usage: "pwd",
			help:  "Print the current directory",
			handler: func(s *Shell, args []string) Result {
				cwd := s.Cwd()
				s.record("pwd", cwd)
				return Result{Output: cwd}
			},
		},
		"ls": {
			usage: "ls",
			help:  "List everything below the current directory",
			handler: func(s *Shell, args []string) Result {
				names := s.fs.Ls()
				s.record("ls", strings.Join(names, ", "))
				return Result{Output: strings.Join(names, "\n")}
			},
		},
		"cd": {
			usage: "cd <path>",
			help:  "Change the current directory",
			handler: func(s *Shell, args []string) Result {
				if len(args) < 1 {
					return usageError(vfs.OpCd, "cd <path>")
				}
				if err := s.fs.Cd(args[0]); err != nil {
					return failure(err)
				}
				s.record("cd", args[0])
				return Result{Output: fmt.Sprintf("Changed directory to %s", args[0])}
			},
		},
		"cat": {
			usage: "cat <path>",
			help:  "Print a file",
			handler: func(s *Shell, args []string) Result {
				if len(args) < 1 {
					return usageError(vfs.OpCat, "cat <path>")
				}
				content, err := s.fs.Cat(args[0])
				if err != nil {
					return failure(err)
				}
				s.record("cat", args[0])
				return Result{Output: content}
			},
		},
		"mkdir": {
			usage: "mkdir <path>",
			help:  "Create a directory",
			handler: func(s *Shell, args []string) Result {
				if len(args) < 1 {
					return usageError(vfs.OpMkdir, "mkdir <path>")
				}
				msg, err := s.fs.Mkdir(args[0])
				if err != nil {
					return failure(err)
				}
				s.record("mkdir", args[0])
				return Result{Output: msg}
			},
		},
		"nano": {
			usage: "nano <path> <content...>",
			help:  "Create a file; existing files are never overwritten",
			handler: func(s *Shell, args []string) Result {
				if len(args) < 2 {
					return usageError(vfs.OpNano, "nano <filename> <content>")
				}
				filename := args[0]
				content := strings.Join(args[1:], " ")
				msg, err := s.fs.Nano(filename, content)
				if err != nil {
					return failure(err)
				}
				s.record("nano", fmt.Sprintf("%s: %s", filename, content))
				return Result{Output: msg}
			},
		},
		"rm": {
			usage: "rm <path>",
			help:  "Remove a file or directory marker",
			handler: func(s *Shell, args []string) Result {
				if len(args) < 1 {
					return usageError(vfs.OpRm, "rm <path>")
				}
				msg, err := s.fs.Rm(args[0])
				if err != nil {
					return failure(err)
				}
				s.record("rm", args[0])
				return Result{Output: msg}
			},
		},
		"chmod": {
			usage: "chmod <path> <mode>",
			help:  "Record a permission string (not enforced)",
			handler: func(s *Shell, args []string) Result {
				if len(args) < 2 {
					return usageError(vfs.OpChmod, "chmod <path> <mode>")
				}
				msg, err := s.fs.Chmod(args[0], args[1])
				if err != nil {
					return failure(err)
				}
				s.record("chmod", fmt.Sprintf("%s: %s", args[0], args[1]))
				return Result{Output: msg}
			},
		},
		"help": {
			usage: "help",
			help:  "Display this help message",
			handler: func(s *Shell, args []string) Result {
				s.record("help", "")
				return Result{Output: s.HelpText()}
			},
		},
		"exit": {
			usage: "exit",
			help:  "Exit the session",
			handler: func(s *Shell, args []string) Result {
				s.record("exit", "")
				return Result{Quit: true}
			},
		},
	}
}
