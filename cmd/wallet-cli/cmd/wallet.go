package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
)

// balancePlaces 余额展示保留的小数位
const balancePlaces = 6

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "钱包信息、余额与手续费",
}

var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示当前会话",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := app.sess.Snapshot()
		fmt.Println("================ 当前会话 ================")
		if st.User != nil && st.User.Username != "" {
			fmt.Printf("User:       %s\n", st.User.Username)
		}
		fmt.Printf("Logged in:  %t\n", st.Authenticated())
		if st.Wallet != nil {
			fmt.Printf("Address:    %s\n", model.ChecksumAddress(st.Wallet.Address))
			fmt.Printf("Balance:    %s\n", model.FormatBalance(st.Balance, balancePlaces))
		}
		fmt.Printf("Network:    %s\n", st.SelectedNetwork)
		fmt.Printf("2FA:        %t\n", st.TwoFactorEnabled)
		if name, ok := app.sess.PendingAction(); ok {
			fmt.Printf("Pending:    %s\n", name)
		}
		fmt.Println("==========================================")
		return nil
	},
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "查询所选网络上的原生币余额",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.sess.RefreshBalance(cmd.Context()); err != nil {
			return err
		}
		st := app.sess.Snapshot()
		fmt.Printf("%s  %s\n", st.SelectedNetwork, model.FormatBalance(st.Balance, balancePlaces))
		return nil
	},
}

var walletRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "同时刷新余额和交易记录",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := app.sess.Refresh(cmd.Context())
		st := app.sess.Snapshot()
		fmt.Printf("Balance:      %s\n", model.FormatBalance(st.Balance, balancePlaces))
		fmt.Printf("Transactions: %d\n", len(app.sess.TransactionsForNetwork()))
		return err
	},
}

var walletFeeCmd = &cobra.Command{
	Use:   "fee",
	Short: "查询所选网络的 gas 价格",
	RunE: func(cmd *cobra.Command, args []string) error {
		fee, err := app.sess.TransactionFee(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Gas price: %s\n", fee.GasPrice)
		for k, v := range fee.Extra {
			fmt.Printf("%s: %s\n", k, string(v))
		}
		return nil
	},
}

var walletMaxCmd = &cobra.Command{
	Use:   "max",
	Short: "计算扣除 gas 后可发送的最大金额",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := app.sess.MaxSendable(cmd.Context())
		if errors.Is(err, errno.ErrInsufficientFunds) {
			fmt.Println("余额不足以支付手续费")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(amount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(walletShowCmd, walletBalanceCmd, walletRefreshCmd, walletFeeCmd, walletMaxCmd)
}
