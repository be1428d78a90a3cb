package main

import "wallet-client/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
