package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"flora-advisor/internal/auth"
	"flora-advisor/internal/config"
	"flora-advisor/internal/ui"
)

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for the users file",
		Long: `Prints a bcrypt hash suitable for the password_hash field of users.json.
Without an argument, passwords are read from stdin one per line.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				return printHash(out, args[0])
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				password := strings.TrimSpace(scanner.Text())
				if password == "" {
					continue
				}
				if err := printHash(out, password); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
}

func printHash(w io.Writer, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

func usersCmd() *cobra.Command {
	var usersFile string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage web UI users",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.SetOutput(cmd.ErrOrStderr())
			if usersFile == "" {
				usersFile = config.LoadEnv().UsersFile
			}
		},
	}
	cmd.PersistentFlags().StringVar(&usersFile, "file", "", "Users file (default USERS_FILE or users.json)")

	var rpm int
	add := &cobra.Command{
		Use:   "add <username> <password>",
		Short: "Add an enabled user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editUsers(usersFile, func(cfg *auth.UsersConfig) error {
				hash, err := auth.HashPassword(args[1])
				if err != nil {
					return err
				}
				return cfg.AddUser(args[0], hash, rpm)
			}, "Added user "+args[0])
		},
	}
	add.Flags().IntVar(&rpm, "rpm", 0, "Requests per minute for this user (0 = unlimited)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := auth.ReadUsersConfig(usersFile)
			if err != nil {
				return err
			}
			if len(cfg.Users) == 0 {
				ui.LogStatus("info", "No users in "+usersFile)
				return nil
			}

			rows := make([]map[string]string, len(cfg.Users))
			for i, u := range cfg.Users {
				status := ui.Success("enabled")
				if !u.Enabled {
					status = ui.Muted("disabled")
				}
				limit := "unlimited"
				if u.RateLimitRPM > 0 {
					limit = strconv.Itoa(u.RateLimitRPM) + "/min"
				}
				rows[i] = map[string]string{"user": u.Username, "status": status, "limit": limit}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), ui.RenderTable(ui.RenderTableOptions{
				Columns: []ui.TableColumn{
					{Key: "user", Header: "Username"},
					{Key: "status", Header: "Status"},
					{Key: "limit", Header: "Rate limit", Align: ui.AlignRight},
				},
				Rows:    rows,
				Border:  ui.BorderUnicode,
				Padding: 1,
			}))
			return err
		},
	}

	remove := &cobra.Command{
		Use:   "remove <username>",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editUsers(usersFile, func(cfg *auth.UsersConfig) error {
				return cfg.RemoveUser(args[0])
			}, "Removed user "+args[0])
		},
	}

	toggle := func(use string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <username>",
			Short: strings.ToUpper(use[:1]) + use[1:] + " a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return editUsers(usersFile, func(cfg *auth.UsersConfig) error {
					return cfg.SetEnabled(args[0], enabled)
				}, strings.ToUpper(use[:1])+use[1:]+"d user "+args[0])
			},
		}
	}

	cmd.AddCommand(add, list, remove, toggle("enable", true), toggle("disable", false))
	return cmd
}

// editUsers loads the users file, applies fn and saves the result.
func editUsers(path string, fn func(*auth.UsersConfig) error, done string) error {
	cfg, err := auth.ReadUsersConfig(path)
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	if err := auth.WriteUsersConfig(path, cfg); err != nil {
		return err
	}
	ui.LogStatus("success", done+" in "+path)
	return nil
}
