package cmd

import (
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var twoFACmd = &cobra.Command{
	Use:   "2fa",
	Short: "两步验证 (TOTP) 管理",
}

var twoFAStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "查询账户是否开启 2FA",
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := app.sess.CheckTwoFactor(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("2FA enabled: %t\n", enabled)
		return nil
	},
}

var twoFAEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "开启 2FA: 显示二维码并校验第一个验证码",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		setup, err := app.sess.Enable2FA(ctx)
		if err != nil {
			return err
		}

		qr, err := qrcode.New(setup.QRCodeImageURL, qrcode.Medium)
		if err != nil {
			return err
		}
		fmt.Println("请使用身份验证器扫描二维码:")
		fmt.Println(qr.ToSmallString(false))
		fmt.Printf("或手动输入密钥: %s\n", setup.Secret.Reveal())

		if skip, _ := cmd.Flags().GetBool("no-deploy"); skip {
			fmt.Println("稍后运行 wallet-cli 2fa deploy <code> 完成开启")
			return nil
		}
		code, err := promptSecret("请输入验证器中的 6 位验证码: ")
		if err != nil {
			return err
		}
		if err := app.sess.Deploy2FA(ctx, code); err != nil {
			return err
		}
		fmt.Println("✅ 2FA 已开启")
		return nil
	},
}

var twoFADeployCmd = &cobra.Command{
	Use:   "deploy <code>",
	Short: "使用第一个验证码完成 2FA 开启",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.sess.Deploy2FA(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("✅ 2FA 已开启")
		return nil
	},
}

var twoFADisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "关闭 2FA (需要验证码)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		res, err := app.sess.Disable2FA(ctx)
		if _, err := settle(ctx, res, err); err != nil {
			return err
		}
		fmt.Println("✅ 2FA 已关闭")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(twoFACmd)
	twoFACmd.AddCommand(twoFAStatusCmd, twoFAEnableCmd, twoFADeployCmd, twoFADisableCmd)
	twoFAEnableCmd.Flags().Bool("no-deploy", false, "只显示二维码，不立即校验")
}
