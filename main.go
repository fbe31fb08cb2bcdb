package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/illarion/icmsf/cmd"
	"github.com/illarion/icmsf/internal/config"
	"github.com/illarion/icmsf/internal/profile"
)

func main() {
	// Interrupts purge key buffers before exiting
	memguard.CatchInterrupt()
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		runAdd(ctx, os.Args[2:])
	case "ls", "list":
		runLs(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "export":
		runExport(ctx, os.Args[2:])
	case "import":
		runImport(ctx, os.Args[2:])
	case "inspect":
		runInspect(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "config":
		runConfig(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parseArgs parses flags that may appear before, between or after
// positional arguments and returns the positional ones.
func parseArgs(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func requireArgs(command string, args []string, n int) {
	if len(args) != n {
		fmt.Fprintf(os.Stderr, "Error: wrong number of arguments\n")
		printCommandHelp(command)
		os.Exit(1)
	}
}

func runAdd(_ context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	host := fs.String("host", "", "Server address")
	sshPort := fs.Int("ssh-port", profile.DefaultSSHPort, "SSH port")
	apiPort := fs.Int("api-port", profile.DefaultAPIPort, "API port")
	user := fs.String("user", "", "Username")
	cert := fs.String("cert", "", "File holding the client certificate or key")
	rest := parseArgs(fs, args)
	requireArgs("add", rest, 1)

	cmd.Add(rest[0], cmd.AddOptions{
		Host:     *host,
		SSHPort:  *sshPort,
		APIPort:  *apiPort,
		User:     *user,
		CertFile: *cert,
	})
}

func runLs(_ context.Context, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Ls()
}

func runRm(_ context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Remove(fs.Args())
}

func runExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default <export_dir>/<name>.icmsf)")
	rest := parseArgs(fs, args)
	requireArgs("export", rest, 1)

	cmd.Export(ctx, rest[0], *output)
}

func runImport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	name := fs.String("name", "", "Store under this name (default user@host)")
	legacy := fs.Bool("legacy", false, "Read a file written by an older release")
	force := fs.Bool("force", false, "Replace a stored profile with the same name")
	keepLocal := fs.Bool("keep-local", false, "Keep the stored profile on conflict")
	keepBoth := fs.Bool("keep-both", false, "Keep both, saving the imported profile as <name>.imported")
	printOnly := fs.Bool("print", false, "Show the decrypted profile without storing it")
	rest := parseArgs(fs, args)
	requireArgs("import", rest, 1)

	var strategy string
	switch {
	case *force:
		strategy = config.ConflictUseImported
	case *keepLocal:
		strategy = config.ConflictKeepLocal
	case *keepBoth:
		strategy = config.ConflictKeepBoth
	}

	cmd.Import(ctx, rest[0], cmd.ImportOptions{
		Name:     *name,
		Legacy:   *legacy,
		Strategy: strategy,
		Print:    *printOnly,
	})
}

func runInspect(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	legacy := fs.Bool("legacy", false, "Read a file written by an older release")
	rest := parseArgs(fs, args)
	requireArgs("inspect", rest, 1)

	cmd.Inspect(ctx, rest[0], *legacy)
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	legacy := fs.Bool("legacy", false, "Read a file written by an older release")
	rest := parseArgs(fs, args)
	requireArgs("diff", rest, 2)

	cmd.Diff(ctx, rest[0], rest[1], *legacy)
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Compact()
}

func runConfig(_ context.Context, args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	rest := parseArgs(fs, args)

	switch {
	case len(rest) == 0:
		cmd.ConfigShow()
	case len(rest) == 1 && rest[0] == "init":
		cmd.ConfigInit(*force)
	default:
		printCommandHelp("config")
		os.Exit(1)
	}
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: icmsf completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("icmsf - Encrypted connection profiles you can hand to someone else")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  icmsf <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  add         Store a new connection profile")
	fmt.Println("  ls          List stored profiles")
	fmt.Println("  rm          Remove stored profiles")
	fmt.Println("  export      Write a profile to a password-protected .icmsf file")
	fmt.Println("  import      Decrypt a .icmsf file and store its profile")
	fmt.Println("  inspect     Show the header of a .icmsf file")
	fmt.Println("  diff        Compare a .icmsf file with a stored profile")
	fmt.Println("  compact     Compact the profile store to reclaim disk space")
	fmt.Println("  config      Show settings, or write a default config file")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  icmsf add prod --host 10.0.0.5 --user deploy --cert id_ed25519")
	fmt.Println("  icmsf export prod                  # Writes prod.icmsf")
	fmt.Println("  icmsf import prod.icmsf            # Stores as deploy@10.0.0.5")
	fmt.Println()
	fmt.Println("The password is read from ICMSF_PASSWORD when set.")
	fmt.Println("Use 'icmsf help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "add":
		fmt.Println("icmsf add <name> --host <host> --user <user> [--ssh-port 22] [--api-port 3000] [--cert <file>]")
		fmt.Println()
		fmt.Println("Stores a new connection profile under <name>.")
		fmt.Println("The certificate is kept in the OS keyring, not in the profile store.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  icmsf add prod --host 10.0.0.5 --user deploy --cert ~/.ssh/id_ed25519")
		fmt.Println("  icmsf add lab --host lab.local --ssh-port 2222 --user root")
	case "ls", "list":
		fmt.Println("icmsf ls")
		fmt.Println()
		fmt.Println("Lists stored profiles. Does not require a password.")
	case "rm":
		fmt.Println("icmsf rm <name> [name...]")
		fmt.Println()
		fmt.Println("Removes profiles and their keyring entries, then compacts the store.")
	case "export":
		fmt.Println("icmsf export <name> [-o <file>]")
		fmt.Println()
		fmt.Println("Encrypts a stored profile into a .icmsf file (mode 0600).")
		fmt.Println("Prompts for a password of at least 12 characters, twice.")
		fmt.Println("Warns when the file lands in a git work tree without being ignored.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -o <file>    Output file (default <export_dir>/<name>.icmsf)")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  icmsf export prod")
		fmt.Println("  icmsf export prod -o /media/usb/prod.icmsf")
	case "import":
		fmt.Println("icmsf import <file> [--name <name>] [--legacy] [--force|--keep-local|--keep-both] [--print]")
		fmt.Println()
		fmt.Println("Decrypts a .icmsf file and stores its profile.")
		fmt.Println("The profile is stored as user@host unless --name is given.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --name         Store under this name")
		fmt.Println("  --legacy       Read a file written by an older release")
		fmt.Println("  --force        Replace a stored profile with the same name")
		fmt.Println("  --keep-local   Keep the stored profile on conflict")
		fmt.Println("  --keep-both    Keep both (save imported profile as <name>.imported)")
		fmt.Println("  --print        Show the decrypted profile without storing it")
		fmt.Println()
		fmt.Println("Interactive mode (default, or conflict: ask in the config file):")
		fmt.Println("  - Skips profiles that are unchanged")
		fmt.Println("  - For conflicts, offers:")
		fmt.Println("    [l] Keep stored profile")
		fmt.Println("    [i] Use imported profile")
		fmt.Println("    [b] Keep both (save imported as <name>.imported)")
		fmt.Println("    [d] Show differences")
		fmt.Println("    [x] Skip")
	case "inspect":
		fmt.Println("icmsf inspect <file> [--legacy]")
		fmt.Println()
		fmt.Println("Shows the format version, sizes and key derivation settings of a file.")
		fmt.Println("Does not require a password.")
	case "diff":
		fmt.Println("icmsf diff <file> <name> [--legacy]")
		fmt.Println()
		fmt.Println("Decrypts <file> and compares it with the stored profile <name>.")
		fmt.Println("Certificates are shown as fingerprints, never in full.")
	case "compact":
		fmt.Println("icmsf compact")
		fmt.Println()
		fmt.Println("Compacts the profile store to reclaim unused disk space.")
		fmt.Println("This is automatically done after 'rm', but can be run manually.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "config":
		fmt.Println("icmsf config [init [--force]]")
		fmt.Println()
		fmt.Println("Without arguments, prints the settings in effect as YAML.")
		fmt.Println("'init' writes the default settings to the config file")
		fmt.Println("(ICMSF_CONFIG, or config.yaml in the user config directory).")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force   Overwrite an existing config file")
	case "completion":
		fmt.Println("icmsf completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(icmsf completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(icmsf completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  icmsf completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
