package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet-client/internal/model"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "交易记录",
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所选网络上的交易记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := app.sess.ListTransactions(cmd.Context()); err != nil {
			return err
		}
		txs := app.sess.TransactionsForNetwork()
		if len(txs) == 0 {
			fmt.Println("暂无交易记录")
			return nil
		}
		for _, tx := range txs {
			fmt.Printf("%s  %s -> %s  %s\n",
				model.ShortAddress(tx.Hash),
				model.ShortAddress(model.ChecksumAddress(tx.FromAddress)),
				model.ShortAddress(model.ChecksumAddress(tx.ToAddress)),
				tx.Amount,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txListCmd)
}
