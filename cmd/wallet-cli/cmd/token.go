package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wallet-client/internal/model"
	"wallet-client/pkg/logger"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "ERC-20 代币管理",
}

var tokenAddCmd = &cobra.Command{
	Use:   "add <contract>",
	Short: "在所选网络上添加代币",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		symbol, _ := cmd.Flags().GetString("symbol")
		decimals, _ := cmd.Flags().GetInt("decimals")

		if _, err := app.sess.AddToken(cmd.Context(), args[0], name, symbol, decimals); err != nil {
			return err
		}
		fmt.Printf("✅ 已添加 %s (%s)\n", symbol, model.ChecksumAddress(args[0]))
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所选网络上的代币",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := app.sess.ListTokens(cmd.Context()); err != nil {
			return err
		}
		printTokens(false)
		return nil
	},
}

var tokenBalancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "查询所选网络上所有代币的余额",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := app.sess.ListTokens(ctx); err != nil {
			return err
		}
		if err := app.sess.RefreshTokenBalances(ctx); err != nil {
			logger.Warn("some token balances failed", zap.Error(err))
		}
		printTokens(true)
		return nil
	},
}

var tokenSendCmd = &cobra.Command{
	Use:   "send <contract> <to> <amount>",
	Short: "发送 ERC-20 代币",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		res, err := app.sess.SendToken(ctx, args[0], args[1], args[2])
		res, err = settle(ctx, res, err)
		if err != nil {
			return err
		}
		fmt.Printf("\n✅ 发送成功!\n")
		fmt.Printf("TxHash: %v\n", res.Value)
		return nil
	},
}

func printTokens(withBalance bool) {
	tokens := app.sess.TokensForNetwork()
	if len(tokens) == 0 {
		fmt.Println("当前网络没有代币")
		return
	}
	for _, t := range tokens {
		if withBalance {
			fmt.Printf("%-8s %-44s %s\n", t.Symbol, model.ChecksumAddress(t.Address), model.FormatBalance(t.Balance, balancePlaces))
		} else {
			fmt.Printf("%-8s %-44s %s (decimals %d)\n", t.Symbol, model.ChecksumAddress(t.Address), t.Name, t.Decimals)
		}
	}
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenAddCmd, tokenListCmd, tokenBalancesCmd, tokenSendCmd)

	tokenAddCmd.Flags().String("name", "", "代币名称")
	tokenAddCmd.Flags().String("symbol", "", "代币符号")
	tokenAddCmd.Flags().Int("decimals", 18, "代币精度")
	_ = tokenAddCmd.MarkFlagRequired("symbol")
}
