package compiler

import "strconv"

// SPIR-V register shifts keep the b, t, u and s register spaces of an HLSL
// root signature from colliding in a single Vulkan descriptor set.
var spirvArgs = []string{
	"-spirv",
	"-fspv-target-env=vulkan1.1",
	"-fvk-use-dx-layout",
	"-fvk-b-shift", "0", "all",
	"-fvk-t-shift", "1000", "all",
	"-fvk-u-shift", "2000", "all",
	"-fvk-s-shift", "3000", "all",
}

type argSettings struct {
	shaderModel int
	debug       bool
	includeDirs []string
	defines     []string
}

func appendOptimization(args []string, debug bool) []string {
	if debug {
		return append(args, "-Od", "-Zi", "-Qembed_debug")
	}
	return append(args, "-O3")
}

func appendOutputFlags(args []string, out Output) []string {
	if out == OutputSPIRV {
		return append(args, spirvArgs...)
	}
	return append(args, "-Wno-ignored-attributes")
}

// binaryArgs builds the dxc command line for req, writing to objectPath.
func binaryArgs(s argSettings, req BinaryRequest, out Output, objectPath string) []string {
	args := appendOutputFlags(nil, out)
	if out == OutputSPIRV && req.Target.InvertsY() {
		args = append(args, "-fvk-invert-y")
	}

	args = append(args, "-E", req.Entrypoint)
	for _, dir := range concat(s.includeDirs, req.IncludeDirs) {
		args = append(args, "-I", dir)
	}
	args = appendOptimization(args, s.debug)
	args = append(args, "-T", req.Target.Profile(s.shaderModel))
	for _, define := range concat(s.defines, req.Defines) {
		args = append(args, "-D", define)
	}
	return append(args, "-Fo", objectPath, req.Source)
}

// libraryArgs builds the dxc command line for a library compile.
func libraryArgs(s argSettings, req LibraryRequest, out Output, objectPath string) []string {
	args := appendOutputFlags(nil, out)
	if out == OutputSPIRV {
		args = append(args, "-fspv-reflect")
	}

	args = append(args, "-T", "lib_6_"+strconv.Itoa(s.shaderModel))
	for _, dir := range concat(s.includeDirs, req.IncludeDirs) {
		args = append(args, "-I", dir)
	}
	args = appendOptimization(args, s.debug)
	for _, define := range concat(s.defines, req.Defines) {
		args = append(args, "-D", define)
	}
	for _, e := range req.Exports {
		args = append(args, "-exports", e.String())
	}
	return append(args, "-Fo", objectPath, req.Source)
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
