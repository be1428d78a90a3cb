package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wallet-client/internal/model"
)

var sendCmd = &cobra.Command{
	Use:   "send <to> [amount]",
	Short: "发送原生币",
	Long:  `在所选网络上发送原生币。使用 --max 发送扣除 gas 后的全部余额。开启 2FA 时会提示输入验证码。`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sendMax, _ := cmd.Flags().GetBool("max")

		var amount string
		switch {
		case sendMax:
			sendable, err := app.sess.MaxSendable(ctx)
			if err != nil {
				return err
			}
			amount = sendable
		case len(args) == 2:
			amount = args[1]
		default:
			return errors.New("缺少金额，或使用 --max")
		}

		st := app.sess.Snapshot()
		fmt.Println("\n================ 待发送交易 ================")
		fmt.Printf("Network:    %s\n", st.SelectedNetwork)
		if st.Wallet != nil {
			fmt.Printf("From:       %s\n", model.ChecksumAddress(st.Wallet.Address))
		}
		fmt.Printf("To:         %s\n", model.ChecksumAddress(args[0]))
		fmt.Printf("Amount:     %s\n", amount)
		fmt.Println("============================================")

		res, err := app.sess.SendTransaction(ctx, args[0], amount)
		res, err = settle(ctx, res, err)
		if err != nil {
			return err
		}
		fmt.Printf("\n✅ 发送成功!\n")
		fmt.Printf("TxHash:  %v\n", res.Value)
		fmt.Printf("Balance: %s\n", model.FormatBalance(app.sess.Snapshot().Balance, balancePlaces))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Bool("max", false, "发送扣除 gas 后的全部余额")
}
