package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"raritystake/native/raritystaking"
)

const defaultRarityBatch = 250

// rarityManifest is the on-disk rarity dataset.
//
//	caller: rsk1...
//	commitRoot: true
//	tokens:
//	  - id: 1
//	    score: 302489
type rarityManifest struct {
	Caller     string              `yaml:"caller"`
	CommitRoot bool                `yaml:"commitRoot"`
	Tokens     []rarityManifestRow `yaml:"tokens"`
}

type rarityManifestRow struct {
	ID    uint64 `yaml:"id"`
	Score uint64 `yaml:"score"`
}

func loadRarityManifest(path string) (*rarityManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest rarityManifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if len(manifest.Tokens) == 0 {
		return nil, fmt.Errorf("manifest %s lists no tokens", path)
	}
	seen := make(map[uint64]struct{}, len(manifest.Tokens))
	for _, row := range manifest.Tokens {
		if row.Score == 0 {
			return nil, fmt.Errorf("token %d: score must be positive", row.ID)
		}
		if _, dup := seen[row.ID]; dup {
			return nil, fmt.Errorf("token %d listed twice", row.ID)
		}
		seen[row.ID] = struct{}{}
	}
	return &manifest, nil
}

func (m *rarityManifest) entries() []raritystaking.RarityEntry {
	out := make([]raritystaking.RarityEntry, len(m.Tokens))
	for i, row := range m.Tokens {
		out[i] = raritystaking.RarityEntry{TokenID: row.ID, Score: row.Score}
	}
	return out
}

func formatRoot(root [32]byte) string {
	return "0x" + hex.EncodeToString(root[:])
}

func runRarityCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return printError(stderr, "usage: rarity-cli rarity <init|root|get> ...")
	}
	switch args[0] {
	case "init":
		return runRarityInit(args[1:], stdout, stderr)
	case "root":
		return runRarityRoot(args[1:], stdout, stderr)
	case "get":
		return runTokenQuery("rarity get", "rarity_get", args[1:], stdout, stderr)
	default:
		return printError(stderr, fmt.Sprintf("unknown rarity subcommand %q", args[0]))
	}
}

func runRarityRoot(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("rarity root", stderr)
	file := fs.String("file", "", "rarity manifest (yaml)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*file) == "" {
		return printError(stderr, "--file is required")
	}
	manifest, err := loadRarityManifest(*file)
	if err != nil {
		return printError(stderr, err.Error())
	}
	root, _ := raritystaking.BuildRarityTree(manifest.entries())
	fmt.Fprintln(stdout, formatRoot(root))
	return 0
}

// runRarityInit uploads a manifest in batches. With commitRoot set the dataset
// root is committed first and every entry carries its proof.
func runRarityInit(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("rarity init", stderr)
	file := fs.String("file", "", "rarity manifest (yaml)")
	callerFlag := fs.String("caller", "", "contract owner address (overrides the manifest)")
	batch := fs.Int("batch", defaultRarityBatch, "entries per call")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*file) == "" {
		return printError(stderr, "--file is required")
	}
	if *batch <= 0 {
		return printError(stderr, "--batch must be positive")
	}
	manifest, err := loadRarityManifest(*file)
	if err != nil {
		return printError(stderr, err.Error())
	}
	caller := strings.TrimSpace(manifest.Caller)
	if strings.TrimSpace(*callerFlag) != "" {
		caller = strings.TrimSpace(*callerFlag)
	}
	if caller == "" {
		return printError(stderr, "caller is required (manifest caller or --caller)")
	}

	entries := manifest.entries()
	if manifest.CommitRoot {
		var root [32]byte
		root, entries = raritystaking.BuildRarityTree(entries)
		_, rpcErr, err := rpcCall("rarity_setRoot", map[string]string{"caller": caller, "root": formatRoot(root)}, true)
		if err != nil {
			return handleRPCCallError(stderr, err)
		}
		if rpcErr != nil {
			return handleRPCError(stderr, rpcErr)
		}
		fmt.Fprintf(stdout, "Committed rarity root %s\n", formatRoot(root))
	}

	written := 0
	for start := 0; start < len(entries); start += *batch {
		end := start + *batch
		if end > len(entries) {
			end = len(entries)
		}
		rows := make([]map[string]interface{}, 0, end-start)
		for _, entry := range entries[start:end] {
			row := map[string]interface{}{"tokenId": entry.TokenID, "score": entry.Score}
			if len(entry.Proof) > 0 {
				proof := make([]string, len(entry.Proof))
				for i, node := range entry.Proof {
					proof[i] = formatRoot(node)
				}
				row["proof"] = proof
			}
			rows = append(rows, row)
		}
		_, rpcErr, err := rpcCall("rarity_initialize", map[string]interface{}{"caller": caller, "entries": rows}, true)
		if err != nil {
			return handleRPCCallError(stderr, err)
		}
		if rpcErr != nil {
			fmt.Fprintf(stderr, "Batch starting at token %d failed after %d entries were written\n", entries[start].TokenID, written)
			return handleRPCError(stderr, rpcErr)
		}
		written += end - start
	}
	fmt.Fprintf(stdout, "Initialized rarity for %d tokens\n", written)
	return 0
}
