package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ticketvault/internal/server/httpapi"
)

func createCmd(o *rootOptions) *cobra.Command {
	var (
		req      httpapi.CreateTicketRequest
		textFile string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a ticket",
		Long: "Create a ticket from --text or --file (\"-\" reads stdin). Without --client-mode the\n" +
			"server encrypts the text under --password, prompting for it when omitted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireAPI(); err != nil {
				return err
			}

			if textFile != "" {
				b, err := readText(cmd, textFile)
				if err != nil {
					return err
				}
				req.Text = string(b)
			}
			if req.Text == "" {
				return fmt.Errorf("--text or --file is required")
			}

			if !req.ClientMode && req.Password == "" {
				pw, err := readPassword("Password: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}

			body, err := o.call(http.MethodPost, "/v1/tickets", req)
			if err != nil {
				return err
			}

			if o.output == "json" {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
				return nil
			}

			var res httpapi.CreateTicketResponse
			if err := json.Unmarshal(body, &res); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created ticket %s (expires %s)\n",
				res.ID, time.Unix(res.Expires, 0).UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Text, "text", "", "Secret text (or ciphertext with --client-mode)")
	cmd.Flags().StringVar(&textFile, "file", "", "Read the text from a file, \"-\" for stdin")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().IntVar(&req.ExpiresMinutes, "expires", 0, "Lifetime in minutes (required)")
	cmd.Flags().BoolVar(&req.OneTime, "one-time", false, "Destroy the ticket after the first successful decrypt")
	cmd.Flags().StringSliceVar(&req.IPAddresses, "ip", nil, "Allowed caller IP address (repeatable)")
	cmd.Flags().BoolVar(&req.ClientMode, "client-mode", false, "Store caller-encrypted ciphertext as-is")
	cmd.Flags().StringVar(&req.IV, "iv", "", "IV for --client-mode")
	cmd.Flags().StringVar(&req.AuthTag, "auth-tag", "", "Auth tag for --client-mode")
	_ = cmd.MarkFlagRequired("expires")
	return cmd
}

func readText(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return b, nil
}

func getCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a ticket without decrypting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireAPI(); err != nil {
				return err
			}
			body, err := o.call(http.MethodGet, "/v1/tickets/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			return printTicket(cmd, o, body)
		},
	}
}

func decryptCmd(o *rootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "decrypt ID",
		Short: "Decrypt a ticket (consumes one-time tickets)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return passwordCall(cmd, o, http.MethodPost, "/v1/tickets/"+url.PathEscape(args[0])+"/decrypt", password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func deleteCmd(o *rootOptions) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a ticket, proving knowledge of its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return passwordCall(cmd, o, http.MethodDelete, "/v1/tickets/"+url.PathEscape(args[0]), password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func passwordCall(cmd *cobra.Command, o *rootOptions, method, path, password string) error {
	if err := o.requireAPI(); err != nil {
		return err
	}
	if password == "" {
		pw, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		password = pw
	}

	body, err := o.call(method, path, httpapi.PasswordRequest{Password: password})
	if err != nil {
		return err
	}
	return printTicket(cmd, o, body)
}

func printTicket(cmd *cobra.Command, o *rootOptions, body []byte) error {
	out := cmd.OutOrStdout()
	if o.output == "json" {
		fmt.Fprintln(out, string(body))
		return nil
	}

	var t httpapi.TicketResponse
	if err := json.Unmarshal(body, &t); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	fmt.Fprintf(out, "ID:       %s\n", t.ID)
	fmt.Fprintf(out, "Created:  %s\n", time.Unix(t.Created, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "Expires:  %s\n", time.Unix(t.Expires, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "One-time: %t\n", t.OneTime)
	if t.ClientMode {
		fmt.Fprintf(out, "IV:       %s\n", t.IV)
		fmt.Fprintf(out, "Auth tag: %s\n", t.AuthTag)
	}
	if t.Expired {
		fmt.Fprintln(out, "This ticket has been destroyed.")
	}
	fmt.Fprintf(out, "Text:\n%s\n", t.Text)
	return nil
}
