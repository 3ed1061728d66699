// Package main provides the acc-cli command line interface for
// accumulator operations.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	accumulator "github.com/keymist/accumulator"
	"github.com/keymist/accumulator/group"
	"github.com/keymist/accumulator/primes"
	"github.com/keymist/accumulator/simulation"
)

const (
	version = "1.0.0"
	appName = "acc-cli"
)

// CLIConfig holds CLI configuration
type CLIConfig struct {
	GroupKind  string
	OutputFile string
	Verbose    bool
	Timing     bool
}

// PrimeExport represents a derived set element
type PrimeExport struct {
	Input string `json:"input"`
	Bits  int    `json:"bits"`
	Prime string `json:"prime"`
}

// AccumulateExport represents an accumulation result
type AccumulateExport struct {
	Group    string   `json:"group"`
	Elements []string `json:"elements"`
	Value    string   `json:"value"`
	Verified bool     `json:"verified"`
}

// SimulateExport represents a simulation run
type SimulateExport struct {
	Group          string `json:"group"`
	Blocks         uint64 `json:"blocks"`
	UtxosPerBlock  int    `json:"utxos_per_block"`
	FinalHeight    uint64 `json:"final_height"`
	FinalValueSize int    `json:"final_value_size"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("accumulator library version %s\n", accumulator.Version)
	case "prime":
		handlePrime(os.Args[2:])
	case "accumulate":
		handleAccumulate(os.Args[2:])
	case "simulate":
		handleSimulate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Cryptographic accumulator CLI

USAGE:
    %s <COMMAND> [OPTIONS]

COMMANDS:
    prime       Derive the accumulatable prime for a byte string
    accumulate  Accumulate elements and verify the transition proof
    simulate    Run the stateless-chain simulation
    version     Show version information
    help        Show this help message

OPTIONS:
    --group <rsa|class>     Group realization (default: rsa)
    --output <file>         Output file (default: stdout)
    --timing                Show timing information
    --verbose               Verbose output

EXAMPLES:
    # Derive the set element for a string
    %s prime --data "hello world"

    # Accumulate three elements in the RSA group
    %s accumulate --data alpha --data beta --data gamma

    # Accumulate in the class group
    %s accumulate --group class --data alpha

    # Simulate five blocks of three transactions each
    %s simulate --blocks 5 --utxos 3 --verbose
`, appName, appName, appName, appName, appName, appName)
}

func resolveGroup(kind string) (group.Group, error) {
	switch kind {
	case "", "rsa":
		return group.DefaultRSAGroup(), nil
	case "class":
		return group.DefaultClassGroup()
	default:
		return nil, fmt.Errorf("unknown group %q (use rsa or class)", kind)
	}
}

func handlePrime(args []string) {
	config := parseConfig(args)
	data := getArg(args, "--data", "-d")
	if data == "" {
		fmt.Fprintf(os.Stderr, "Error: --data is required\n")
		os.Exit(1)
	}

	bits := accumulator.ElementBits
	if s := getArg(args, "--bits", "-b"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --bits: %v\n", err)
			os.Exit(1)
		}
		bits = v
	}

	start := time.Now()
	p, err := primes.HashToPrime([]byte(data), bits)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error deriving prime: %v\n", err)
		os.Exit(1)
	}

	if config.Timing {
		fmt.Fprintf(os.Stderr, "Derivation took: %v\n", elapsed)
	}

	export := PrimeExport{Input: data, Bits: bits, Prime: p.String()}
	output, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	writeOutput(output, config.OutputFile)
}

func handleAccumulate(args []string) {
	config := parseConfig(args)
	inputs := getArgs(args, "--data", "-d")
	if len(inputs) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one --data is required\n")
		os.Exit(1)
	}

	g, err := resolveGroup(config.GroupKind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elems := make([]*big.Int, len(inputs))
	elemStrings := make([]string, len(inputs))
	for i, in := range inputs {
		x, err := accumulator.HashToElement([]byte(in))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error deriving element: %v\n", err)
			os.Exit(1)
		}
		elems[i] = x
		elemStrings[i] = x.String()
	}

	acc := accumulator.Empty(g)
	start := time.Now()
	next, p, err := acc.Add(elems)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error accumulating: %v\n", err)
		os.Exit(1)
	}

	if config.Timing {
		fmt.Fprintf(os.Stderr, "Accumulation took: %v\n", elapsed)
	}

	export := AccumulateExport{
		Group:    groupName(config.GroupKind),
		Elements: elemStrings,
		Value:    hex.EncodeToString(next.Value().Encode()),
		Verified: accumulator.VerifyAdd(acc, next, elems, p),
	}
	output, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	writeOutput(output, config.OutputFile)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Accumulated %d elements\n", len(elems))
		fmt.Fprintf(os.Stderr, "Value size: %d bytes\n", len(next.Value().Encode()))
	}
}

func handleSimulate(args []string) {
	config := parseConfig(args)

	blocks := uint64(3)
	if s := getArg(args, "--blocks", "-n"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --blocks: %v\n", err)
			os.Exit(1)
		}
		blocks = v
	}
	utxosPerBlock := 3
	if s := getArg(args, "--utxos", "-u"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --utxos: %v\n", err)
			os.Exit(1)
		}
		utxosPerBlock = v
	}

	g, err := resolveGroup(config.GroupKind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := zap.NewNop()
	if config.Verbose {
		log, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = log.Sync() }()
	}

	chain := simulation.NewChain(g, log)

	// Each block spends every output the previous block created.
	var live []simulation.Utxo

	start := time.Now()
	for i := uint64(0); i < blocks; i++ {
		liveElems := make([]*big.Int, len(live))
		for j, u := range live {
			x, err := u.Element()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error deriving element: %v\n", err)
				os.Exit(1)
			}
			liveElems[j] = x
		}

		tx := simulation.Transaction{}
		for j, u := range live {
			w, err := chain.Tip().WitnessFor(liveElems, liveElems[j])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error computing witness: %v\n", err)
				os.Exit(1)
			}
			tx.Spent = append(tx.Spent, simulation.SpentUtxo{Utxo: u, Witness: w})
		}
		created := make([]simulation.Utxo, utxosPerBlock)
		for j := range created {
			created[j] = simulation.NewUtxo()
		}
		tx.Created = created

		block, err := chain.CreateBlock([]simulation.Transaction{tx})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating block: %v\n", err)
			os.Exit(1)
		}
		if err := chain.AcceptBlock(block); err != nil {
			fmt.Fprintf(os.Stderr, "Error accepting block: %v\n", err)
			os.Exit(1)
		}
		live = created
	}
	elapsed := time.Since(start)

	if config.Timing {
		fmt.Fprintf(os.Stderr, "Simulation took: %v\n", elapsed)
	}

	export := SimulateExport{
		Group:          groupName(config.GroupKind),
		Blocks:         blocks,
		UtxosPerBlock:  utxosPerBlock,
		FinalHeight:    chain.Height(),
		FinalValueSize: len(chain.Tip().Value().Encode()),
	}
	output, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	writeOutput(output, config.OutputFile)
}

// ============================================================================
// Utility Functions
// ============================================================================

func groupName(kind string) string {
	if kind == "" {
		return "rsa"
	}
	return kind
}

func parseConfig(args []string) CLIConfig {
	return CLIConfig{
		GroupKind:  getArg(args, "--group", "-g"),
		OutputFile: getArg(args, "--output", "-o"),
		Verbose:    hasFlag(args, "--verbose", "-v"),
		Timing:     hasFlag(args, "--timing", "-t"),
	}
}

func getArg(args []string, long, short string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == long || args[i] == short {
			return args[i+1]
		}
	}
	return ""
}

func getArgs(args []string, long, short string) []string {
	var out []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == long || args[i] == short {
			out = append(out, args[i+1])
		}
	}
	return out
}

func hasFlag(args []string, long, short string) bool {
	for _, arg := range args {
		if arg == long || arg == short {
			return true
		}
	}
	return false
}

func writeOutput(data []byte, outputFile string) {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, append(data, '\n'), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(string(data))
}
