package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

var rpcEndpoint = defaultRPCEndpoint() // overridden by RPC_URL or --rpc
var rpcAuthToken = newTokenSource("RSK_RPC_TOKEN")

// rpcCall is swapped out in tests.
var rpcCall = callRPC

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func main() {
	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	rest := args[1:]
	switch args[0] {
	case "stake":
		return runBatchCommand("stake", "staking_stake", rest, stdout, stderr)
	case "unstake":
		return runBatchCommand("unstake", "staking_unstake", rest, stdout, stderr)
	case "claim":
		return runBatchCommand("claim", "staking_claim", rest, stdout, stderr)
	case "raffle":
		return runRaffleCommand(rest, stdout, stderr)
	case "rewards":
		return runTokenQuery("rewards", "staking_getRewards", rest, stdout, stderr)
	case "info":
		return runTokenQuery("info", "staking_info", rest, stdout, stderr)
	case "staked":
		return runStakedCommand(rest, stdout, stderr)
	case "approve":
		return runApproveCommand(rest, stdout, stderr)
	case "rarity":
		return runRarityCommand(rest, stdout, stderr)
	case "owner":
		return runSimpleQuery("staking_owner", stdout, stderr)
	case "status":
		return runSimpleQuery("staking_status", stdout, stderr)
	case "balance":
		return runBalanceCommand(rest, stdout, stderr)
	case "events":
		return runEventsCommand(rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command %q\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return strings.TrimSpace(`
Usage: rarity-cli [--rpc URL] <command> [args]

Commands:
  stake   --caller <addr> <ids>       Stake tokens (ids: 1,2,5-9)
  unstake --caller <addr> <ids>       Unstake tokens and settle rewards
  claim   --caller <addr> <ids>       Claim accrued rewards
  raffle  --caller <addr> <ids>       Roll a raffle round (contract owner)
  raffle  result <round>              Show a completed raffle round
  rewards <id>                        Preview pending rewards
  info    <id>                        Show the stake record of a token
  staked  <owner>                     List tokens staked by owner
  approve --caller <addr>             Approve the staking vault for all tokens
  rarity  init --file <manifest.yaml> Load rarity scores from a manifest
  rarity  root --file <manifest.yaml> Print the rarity dataset root
  rarity  get <id>                    Show the rarity score of a token
  owner                               Show the contract owner
  status                              Show the ledger head
  balance [--symbol RWD] <addr>       Show a fungible token balance
  events  [--type T] [--limit N]      List recent ledger events

Mutating commands read the bearer token from RSK_RPC_TOKEN or prompt for it.`)
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://127.0.0.1:8547"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func doRPCRequest(payload []byte, requireAuth bool) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if requireAuth {
		token, err := rpcAuthToken.Get()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", rpcEndpoint, err)
	}
	return resp, nil
}

func callRPC(method string, param interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if param != nil {
		payload["params"] = []interface{}{param}
	} else {
		payload["params"] = []interface{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	resp, err := doRPCRequest(body, requireAuth)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode RPC response (HTTP %d): %w", resp.StatusCode, err)
	}
	return rpcResp.Result, rpcResp.Error, nil
}

// invoke performs the call and prints the result or the error.
func invoke(method string, param interface{}, requireAuth bool, stdout, stderr io.Writer) int {
	result, rpcErr, err := rpcCall(method, param, requireAuth)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func handleRPCError(w io.Writer, err *rpcError) int {
	if err == nil {
		return 0
	}
	if len(err.Data) > 0 {
		var detail string
		if json.Unmarshal(err.Data, &detail) == nil && detail != "" {
			fmt.Fprintf(w, "RPC error %d: %s (%s)\n", err.Code, err.Message, detail)
			return 1
		}
	}
	fmt.Fprintf(w, "RPC error %d: %s\n", err.Code, err.Message)
	return 1
}

func handleRPCCallError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "RPC call failed: %v\n", err)
	return 1
}

func writeRPCResult(w io.Writer, result json.RawMessage) {
	if len(result) == 0 {
		fmt.Fprintln(w, "null")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		_, _ = w.Write(result)
		fmt.Fprintln(w)
		return
	}
	buf.WriteByte('\n')
	_, _ = w.Write(buf.Bytes())
}

// parseTokenIDs accepts comma or space separated ids and inclusive ranges
// such as "1-99".
func parseTokenIDs(args []string) ([]uint64, error) {
	var ids []uint64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if from, to, ok := strings.Cut(part, "-"); ok {
				start, err := strconv.ParseUint(strings.TrimSpace(from), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid range %q", part)
				}
				end, err := strconv.ParseUint(strings.TrimSpace(to), 10, 64)
				if err != nil || end < start {
					return nil, fmt.Errorf("invalid range %q", part)
				}
				for id := start; id <= end; id++ {
					ids = append(ids, id)
				}
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid token id %q", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one token id is required")
	}
	return ids, nil
}

func printError(w io.Writer, msg string) int {
	fmt.Fprintf(w, "Error: %s\n", msg)
	return 1
}
