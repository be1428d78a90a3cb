package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallet-client/internal/model"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "账户管理 (注册、登录、导入、登出、修改密码)",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "注册新用户并创建钱包",
	Long:  `注册新用户，后端生成新的钱包并返回助记词。请抄写助记词后再次输入以确认。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		username, _ := cmd.Flags().GetString("username")
		skipConfirm, _ := cmd.Flags().GetBool("skip-confirm")

		username, err := flagOrPrompt(username, "用户名: ")
		if err != nil {
			return err
		}
		password, err := promptSecret("密码: ")
		if err != nil {
			return err
		}
		confirm, err := promptSecret("确认密码: ")
		if err != nil {
			return err
		}

		fmt.Println("正在创建钱包...")
		w, err := app.sess.CreateUser(ctx, username, password, confirm)
		if err != nil {
			return err
		}

		fmt.Println("---------------------------------------------------")
		fmt.Printf("地址 (Address): %s\n", model.ChecksumAddress(w.Address))
		fmt.Printf("助记词 (Mnemonic): \n%s\n", w.Mnemonic.Reveal())
		fmt.Println("---------------------------------------------------")
		fmt.Println("请妥善保管您的助记词！任何拥有助记词的人都可以控制该钱包的所有资产。")

		if skipConfirm {
			return nil
		}
		for {
			input, err := prompt("请重新输入助记词以确认: ")
			if err != nil {
				return err
			}
			if err := app.sess.ConfirmMnemonic(input); err != nil {
				fmt.Println(err)
				continue
			}
			fmt.Println("✅ 助记词已确认")
			return nil
		}
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "使用用户名、密码和助记词登录",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		username, _ := cmd.Flags().GetString("username")

		username, err := flagOrPrompt(username, "用户名: ")
		if err != nil {
			return err
		}
		password, err := promptSecret("密码: ")
		if err != nil {
			return err
		}
		mnemonic, err := promptSecret("助记词: ")
		if err != nil {
			return err
		}

		due, err := app.sess.Login(ctx, username, password, mnemonic)
		if err != nil {
			return err
		}
		if due {
			if err := verifyLogin(ctx); err != nil {
				return err
			}
		}
		printLoggedIn()
		return nil
	},
}

var userImportCmd = &cobra.Command{
	Use:   "import",
	Short: "用已有助记词导入钱包",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		username, _ := cmd.Flags().GetString("username")

		username, err := flagOrPrompt(username, "用户名: ")
		if err != nil {
			return err
		}
		password, err := promptSecret("密码: ")
		if err != nil {
			return err
		}
		confirm, err := promptSecret("确认密码: ")
		if err != nil {
			return err
		}
		mnemonic, err := promptSecret("助记词: ")
		if err != nil {
			return err
		}

		due, err := app.sess.Import(ctx, username, password, confirm, mnemonic)
		if err != nil {
			return err
		}
		if due {
			if err := verifyLogin(ctx); err != nil {
				return err
			}
		}
		printLoggedIn()
		return nil
	},
}

var userVerifyCmd = &cobra.Command{
	Use:   "verify [code]",
	Short: "校验 2FA 验证码",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		if len(args) == 1 {
			if err := app.sess.VerifyLogin(cmd.Context(), args[0]); err != nil {
				return err
			}
		} else if err := verifyLogin(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✅ 验证通过")
		return nil
	},
}

var userLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "登出并清除本地保存的会话",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.sess.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("已登出")
		return nil
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "修改密码",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireLogin(); err != nil {
			return err
		}
		current, err := promptSecret("当前密码: ")
		if err != nil {
			return err
		}
		next, err := promptSecret("新密码: ")
		if err != nil {
			return err
		}
		confirm, err := promptSecret("确认新密码: ")
		if err != nil {
			return err
		}
		if err := app.sess.ChangePassword(cmd.Context(), current, next, confirm); err != nil {
			return err
		}
		fmt.Println("✅ 密码已修改")
		return nil
	},
}

func printLoggedIn() {
	st := app.sess.Snapshot()
	fmt.Printf("\n✅ 登录成功!\n")
	if st.Wallet != nil {
		fmt.Printf("Address: %s\n", model.ChecksumAddress(st.Wallet.Address))
	}
	fmt.Printf("Network: %s\n", st.SelectedNetwork)
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userLoginCmd, userImportCmd, userVerifyCmd, userLogoutCmd, userPasswdCmd)

	for _, c := range []*cobra.Command{userCreateCmd, userLoginCmd, userImportCmd} {
		c.Flags().StringP("username", "u", "", "用户名")
	}
	userCreateCmd.Flags().Bool("skip-confirm", false, "跳过助记词确认")
}
