package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/corridas/rankrelay/internal/api"
	"github.com/corridas/rankrelay/internal/config"
	"github.com/corridas/rankrelay/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	remoteAPI   string
	remoteToken string
	sendGroup   string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the readiness of a running relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context(), cmd.OutOrStdout(), remoteClient())
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the WhatsApp groups a running relay can post to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGroups(cmd.Context(), cmd.OutOrStdout(), remoteClient())
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message through a running relay",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(cmd.Context(), cmd.OutOrStdout(), remoteClient(), strings.Join(args, " "), sendGroup)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", version)
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, groupsCmd, sendCmd} {
		c.Flags().StringVar(&remoteAPI, "api", "", "control surface URL (default from WHATSAPP_API_HOST/WHATSAPP_API_PORT)")
		c.Flags().StringVar(&remoteToken, "token", "", "bearer token (default WHATSAPP_API_AUTH_TOKEN)")
	}
	sendCmd.Flags().StringVar(&sendGroup, "group", "", "destination group JID (default WHATSAPP_GROUP_ID of the relay)")
}

// remoteClient resolves flags against the local configuration. A broken
// configuration falls back to defaults so the flags alone still work.
func remoteClient() *api.Client {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	baseURL := strings.TrimSpace(remoteAPI)
	if baseURL == "" {
		baseURL = cfg.Gateway.BaseURL()
	}
	token := strings.TrimSpace(remoteToken)
	if token == "" {
		token = cfg.Gateway.AuthToken
	}
	return api.NewClient(baseURL, token, &http.Client{Timeout: 10 * time.Second})
}

func runStatus(ctx context.Context, w io.Writer, c *api.Client) error {
	status, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintln(w, "Relay:    ✗ Unreachable")
		return err
	}
	fmt.Fprintln(w, "Relay:    ✓ Reachable")
	if status == session.StatusReady {
		fmt.Fprintln(w, "WhatsApp: "+color.GreenString("✓ Ready"))
	} else {
		fmt.Fprintln(w, "WhatsApp: "+color.YellowString("… %s (scan the QR code if pairing)", status))
	}
	return nil
}

func runGroups(ctx context.Context, w io.Writer, c *api.Client) error {
	groups, err := c.Groups(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(w, "No groups found.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\n", g.Name, g.ID)
	}
	return tw.Flush()
}

func runSend(ctx context.Context, w io.Writer, c *api.Client, message, group string) error {
	if err := c.SendMessage(ctx, message, group); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ Sent")
	return nil
}
