package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
	"wallet-client/pkg/logger"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "网络列表、切换与自定义网络",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出内置网络和自定义网络",
	RunE: func(cmd *cobra.Command, args []string) error {
		current := app.sess.Snapshot().SelectedNetwork
		mark := func(name string) string {
			if name == current {
				return "*"
			}
			return " "
		}

		for _, kind := range []model.NetworkKind{model.Mainnet, model.Testnet} {
			fmt.Printf("[%s]\n", kind)
			for _, n := range model.BuiltinNetworks {
				if n.Kind == kind {
					fmt.Printf(" %s %s\n", mark(n.Name), n.Name)
				}
			}
		}

		if !app.sess.Snapshot().Authenticated() {
			return nil
		}
		printCustomNetworks(cmd.Context(), current)
		return nil
	},
}

var networkCustomCmd = &cobra.Command{
	Use:   "custom",
	Short: "列出自定义网络",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		if n := printCustomNetworks(cmd.Context(), app.sess.Snapshot().SelectedNetwork); n == 0 {
			fmt.Println("暂无自定义网络")
		}
		return nil
	},
}

var networkSelectCmd = &cobra.Command{
	Use:   "select <name>",
	Short: "切换到内置网络",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.sess.SelectBuiltinNetwork(cmd.Context(), args[0]); err != nil {
			return err
		}
		printNetwork()
		return nil
	},
}

var networkAddCmd = &cobra.Command{
	Use:   "add",
	Short: "添加自定义网络",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		f := cmd.Flags()
		var n model.CustomNetwork
		n.NetworkName, _ = f.GetString("name")
		n.CurrencyName, _ = f.GetString("currency")
		n.CurrencySymbol, _ = f.GetString("symbol")
		n.RpcUrl, _ = f.GetString("rpc")
		n.ChainId, _ = f.GetString("chain-id")
		n.Decimals, _ = f.GetInt("decimals")

		if err := app.sess.AddCustomNetwork(cmd.Context(), n); err != nil {
			return err
		}
		fmt.Printf("✅ 已添加网络 %s\n", n.NetworkName)
		return nil
	},
}

var networkUseCustomCmd = &cobra.Command{
	Use:   "use-custom <name>",
	Short: "切换到自定义网络",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		custom, err := app.sess.ListCustomNetworks(cmd.Context())
		if err != nil {
			logger.Warn("custom networks unavailable, using cached list", zap.Error(err))
		}
		for _, n := range custom {
			if n.NetworkName == args[0] {
				if err := app.sess.SelectCustomNetwork(cmd.Context(), n); err != nil {
					return err
				}
				printNetwork()
				return nil
			}
		}
		return errno.ErrUnknownNetwork.WithMessage("Unknown custom network: " + args[0])
	},
}

// printCustomNetworks 拉取失败时展示本地缓存
func printCustomNetworks(ctx context.Context, current string) int {
	custom, err := app.sess.ListCustomNetworks(ctx)
	if err != nil {
		logger.Warn("custom networks unavailable, showing cached list", zap.Error(err))
	}
	if len(custom) == 0 {
		return 0
	}
	fmt.Println("[custom]")
	for _, n := range custom {
		mark := " "
		if n.NetworkName == current {
			mark = "*"
		}
		fmt.Printf(" %s %-20s chainId=%-8s %s %s\n", mark, n.NetworkName, n.ChainId, n.CurrencySymbol, n.RpcUrl)
	}
	return len(custom)
}

func printNetwork() {
	st := app.sess.Snapshot()
	fmt.Printf("Network: %s\n", st.SelectedNetwork)
	if st.Wallet != nil {
		fmt.Printf("Balance: %s\n", model.FormatBalance(st.Balance, balancePlaces))
	}
}

func init() {
	rootCmd.AddCommand(networkCmd)
	networkCmd.AddCommand(networkListCmd, networkSelectCmd, networkAddCmd, networkCustomCmd, networkUseCustomCmd)

	networkAddCmd.Flags().String("name", "", "网络名称")
	networkAddCmd.Flags().String("currency", "", "原生币名称")
	networkAddCmd.Flags().String("symbol", "", "原生币符号")
	networkAddCmd.Flags().String("rpc", "", "RPC 地址")
	networkAddCmd.Flags().String("chain-id", "", "Chain ID")
	networkAddCmd.Flags().Int("decimals", 18, "原生币精度")
	for _, name := range []string{"name", "symbol", "rpc", "chain-id"} {
		_ = networkAddCmd.MarkFlagRequired(name)
	}
}
