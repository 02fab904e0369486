package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sdraeger/nsg-cli"
)

type loginOptions struct {
	username string
	password string
	appKey   string
	noVerify bool
}

func newLoginCmd(global *globalOptions) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login and save NSG credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "NSG username")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "NSG password")
	cmd.Flags().StringVarP(&opts.appKey, "app-key", "a", "", "NSG application key")
	cmd.Flags().BoolVar(&opts.noVerify, "no-verify", false, "skip connection test")

	return cmd
}

func runLogin(cmd *cobra.Command, global *globalOptions, opts *loginOptions) error {
	fmt.Println(boldCyan("NSG Login"))
	fmt.Println(cyan(rule(60, "=")))
	fmt.Println()

	username, err := promptIfEmpty(opts.username, "NSG Username: ", "username")
	if err != nil {
		return err
	}

	password, err := promptPasswordIfEmpty(opts.password)
	if err != nil {
		return err
	}

	appKey, err := promptIfEmpty(opts.appKey, "NSG Application Key: ", "application key")
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("%s Saving credentials...\n", cyan("→"))

	creds := nsg.Credentials{Username: username, Password: password, AppKey: appKey}

	if !opts.noVerify {
		fmt.Printf("%s Testing connection to NSG...\n", cyan("→"))

		url := nsg.DefaultBaseURL
		if global.url != "" {
			url = global.url
		}

		client := nsg.NewClient(creds, nsg.WithBaseURL(url), nsg.WithLogger(logger))
		if err := client.TestConnection(cmd.Context()); err != nil {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintf(os.Stderr, "%s %s\n", red("✗"), red("Authentication failed!"))
			fmt.Fprintln(os.Stderr)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, "Please check your credentials:")
			fmt.Fprintln(os.Stderr, "  1. Username and password are correct")
			fmt.Fprintln(os.Stderr, "  2. Application key is valid")
			fmt.Fprintln(os.Stderr, "  3. Your NSG account is active")
			fmt.Fprintln(os.Stderr)
			fmt.Fprintf(os.Stderr, "Get credentials at: %s\n", cyan("https://www.nsgportal.org/"))

			return fmt.Errorf("login failed")
		}

		fmt.Printf("%s Connection successful!\n", boldGreen("✓"))
	}

	if err := creds.Save(); err != nil {
		return err
	}

	location, err := nsg.CredentialsPath()
	if err != nil {
		location = "~/" + nsg.ConfigDirName + "/" + nsg.CredentialsFileName
	}

	fmt.Println()
	fmt.Println(green(rule(60, "=")))
	fmt.Printf("%s %s\n", boldGreen("✓"), boldGreen("Login successful!"))
	fmt.Println(green(rule(60, "=")))
	fmt.Println()
	fmt.Printf("Credentials saved to: %s\n", cyan(location))
	fmt.Println()
	fmt.Println("You can now use:")
	fmt.Printf("  %s - List your NSG jobs\n", cyan("nsg list"))
	fmt.Printf("  %s - Check job status\n", cyan("nsg status <job_id>"))
	fmt.Printf("  %s - Submit a new job\n", cyan("nsg submit <zip_file> --tool <tool>"))
	fmt.Printf("  %s - Download job results\n", cyan("nsg download <job_id>"))
	fmt.Println()

	return nil
}

func promptIfEmpty(value, prompt, label string) (string, error) {
	if value != "" {
		return value, nil
	}

	fmt.Print(prompt)

	reader := bufio.NewReader(os.Stdin)

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%s cannot be empty", label)
	}

	return input, nil
}

func promptPasswordIfEmpty(value string) (string, error) {
	if value != "" {
		return value, nil
	}

	fmt.Print("NSG Password: ")

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))

	fmt.Println()

	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	password := string(raw)
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}
