//go:build ignore

// build.go - Inventory RL Dashboard build system
// Usage: go run build.go [-target=TARGET]
// Targets: all, dashboard, summarize, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const module = "invdash"

var (
	// Executable names (key = source dir under cmd/, value = output name)
	executables = map[string]string{
		"dashboard": "invdash",
		"summarize": "invdash-summarize",
	}

	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorBlue    = "\033[34m"
	colorCyan    = "\033[36m"
	distDir      = "dist"
	configsDir   = "configs"
	buildTime    = time.Now().UTC().Format(time.RFC3339)
	binarySuffix = ""
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target operating system")
	goarch := flag.String("arch", runtime.GOARCH, "Target architecture")
	flag.Parse()

	ctx := &BuildContext{Verbose: *verbose, GOOS: *goos, GOARCH: *goarch}
	if ctx.GOOS == "windows" {
		binarySuffix = ".exe"
	}

	fmt.Println(colorCyan + "=== Inventory RL Dashboard - Build System ===" + colorReset)
	start := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(ctx)
	case "dashboard", "summarize":
		err = buildExecutable(*target, ctx)
	case "test":
		err = run(ctx, "go", "test", "./...")
	case "clean":
		err = os.RemoveAll(distDir)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

// buildAll builds every executable and copies the example config next to
// them.
func buildAll(ctx *BuildContext) error {
	printInfo("Building all components...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("create dist directory: %w", err)
	}
	for name := range executables {
		if err := buildExecutable(name, ctx); err != nil {
			return err
		}
	}
	return copyConfigFiles(ctx)
}

func buildExecutable(name string, ctx *BuildContext) error {
	out := filepath.Join(distDir, executables[name]+binarySuffix)
	printInfo(fmt.Sprintf("Building %s -> %s", name, out))

	ldflags := fmt.Sprintf("-s -w -X %s/internal/app.BuildTime=%s", module, buildTime)
	cmd := exec.Command("go", "build", "-trimpath", "-ldflags", ldflags, "-o", out, "./cmd/"+name)
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH, "CGO_ENABLED=0")
	return runCmd(ctx, cmd)
}

func copyConfigFiles(ctx *BuildContext) error {
	src := filepath.Join(configsDir, "config.yaml")
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	dst := filepath.Join(distDir, "config.yaml")
	if ctx.Verbose {
		printInfo(fmt.Sprintf("Copying %s -> %s", src, dst))
	}
	return os.WriteFile(dst, data, 0644)
}

func run(ctx *BuildContext, name string, args ...string) error {
	return runCmd(ctx, exec.Command(name, args...))
}

func runCmd(ctx *BuildContext, cmd *exec.Cmd) error {
	if ctx.Verbose {
		printInfo(fmt.Sprintf("Running: %v", cmd.Args))
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %w", cmd.Args, err)
	}
	return nil
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-os=GOOS] [-arch=GOARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all        Build every executable into dist/ with the example config")
	fmt.Println("  dashboard  Build the HTTP server")
	fmt.Println("  summarize  Build the batch summary CLI")
	fmt.Println("  test       Run all tests")
	fmt.Println("  clean      Remove dist/")
}
