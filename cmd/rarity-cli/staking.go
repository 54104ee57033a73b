package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage())
	}
	return fs
}

func runBatchCommand(name, method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(name, stderr)
	caller := fs.String("caller", "", "caller address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*caller) == "" {
		return printError(stderr, "--caller is required")
	}
	ids, err := parseTokenIDs(fs.Args())
	if err != nil {
		return printError(stderr, err.Error())
	}
	param := map[string]interface{}{"caller": strings.TrimSpace(*caller), "tokenIds": ids}
	return invoke(method, param, true, stdout, stderr)
}

func runRaffleCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "result" {
		if len(args) != 2 {
			return printError(stderr, "usage: rarity-cli raffle result <round>")
		}
		round, err := strconv.ParseUint(strings.TrimSpace(args[1]), 10, 64)
		if err != nil {
			return printError(stderr, "invalid round")
		}
		return invoke("staking_raffleResult", map[string]uint64{"round": round}, false, stdout, stderr)
	}
	return runBatchCommand("raffle", "staking_raffleRoll", args, stdout, stderr)
}

func runTokenQuery(name, method string, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		return printError(stderr, fmt.Sprintf("usage: rarity-cli %s <id>", name))
	}
	id, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return printError(stderr, "invalid token id")
	}
	return invoke(method, map[string]uint64{"tokenId": id}, false, stdout, stderr)
}

func runStakedCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return printError(stderr, "usage: rarity-cli staked <owner>")
	}
	return invoke("staking_userStaked", map[string]string{"owner": strings.TrimSpace(args[0])}, false, stdout, stderr)
}

func runSimpleQuery(method string, stdout, stderr io.Writer) int {
	return invoke(method, nil, false, stdout, stderr)
}

// runApproveCommand grants the staking vault operator rights over the caller's tokens.
func runApproveCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("approve", stderr)
	caller := fs.String("caller", "", "token holder address")
	revoke := fs.Bool("revoke", false, "revoke instead of grant")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*caller) == "" {
		return printError(stderr, "--caller is required")
	}
	result, rpcErr, err := rpcCall("staking_status", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	var status struct {
		Vault string `json:"vault"`
	}
	if err := json.Unmarshal(result, &status); err != nil || status.Vault == "" {
		return printError(stderr, "could not resolve staking vault")
	}
	param := map[string]interface{}{
		"caller":   strings.TrimSpace(*caller),
		"operator": status.Vault,
		"approved": !*revoke,
	}
	return invoke("nft_setApprovalForAll", param, true, stdout, stderr)
}

func runBalanceCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("balance", stderr)
	symbol := fs.String("symbol", "RWD", "token symbol")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		return printError(stderr, "usage: rarity-cli balance [--symbol RWD] <addr>")
	}
	param := map[string]string{"symbol": strings.TrimSpace(*symbol), "address": strings.TrimSpace(fs.Arg(0))}
	return invoke("token_balance", param, false, stdout, stderr)
}

func runEventsCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("events", stderr)
	eventType := fs.String("type", "", "event type filter")
	limit := fs.Int("limit", 20, "maximum entries")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	param := map[string]interface{}{"limit": *limit}
	if strings.TrimSpace(*eventType) != "" {
		param["type"] = strings.TrimSpace(*eventType)
	}
	return invoke("staking_events", param, false, stdout, stderr)
}
