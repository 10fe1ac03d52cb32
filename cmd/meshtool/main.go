// meshtool is a CLI utility for welding, repairing and converting meshes.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	command := args[0]
	args = args[1:]

	var cmd func(*env, []string) error
	switch command {
	case "info":
		cmd = cmdInfo
	case "weld":
		cmd = cmdWeld
	case "tvertex", "tv":
		cmd = cmdTVertex
	case "tangents":
		cmd = cmdTangents
	case "transform", "xf":
		cmd = cmdTransform
	case "convert":
		cmd = cmdConvert
	case "sample":
		cmd = cmdSample
	case "config":
		cmd = cmdConfig
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}

	e := &env{name: command, stdout: stdout, stderr: stderr}
	defer e.close()
	if err := cmd(e, args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `meshtool - mesh welding, T-vertex repair and conversion

Usage:
  meshtool <command> [options] <args>

Commands:
  info <mesh>                          Show attributes, draw calls and bounds
  weld -o <out> <mesh>                 Weld attribute values within tolerances
  tvertex -o <out> <mesh>              Split triangles at T-vertices
  tangents -o <out> <mesh>             Generate TANGENT from positions and UVs
  transform -o <out> [-t|-r|-s x,y,z] <mesh>
                                       Apply translate/rotate/scale
  convert <in> <out>                   Convert between formats
  sample -o <out> <box|cylinder|hole>  Sample an SDF primitive
  config [-save] [-o <path>]           Print or save the effective config

Common options:
  -config <path>   Config file (default ./meshtool.yaml, then user config dir)
  -debug           Debug logging
  -epsilon <f>     T-vertex tolerance
  -max-entries <n> R-tree node fan-out
  -encoding <name> Text encoding of OBJ names and STL headers
  -log-file <path> Also log to a rotating file

Formats: .obj, .stl, .pbmesh

Examples:
  meshtool info model.obj
  meshtool tvertex -epsilon 1e-5 -o fixed.obj model.obj
  meshtool transform -s -1,1,1 -o mirrored.pbmesh model.obj
  meshtool sample -cells 64 -o part.stl hole`)
}
