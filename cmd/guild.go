package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/priyxstudio/botdeck/remote"
)

var guildArgs struct {
	Member  string
	Message string
	User    string
	Role    string
	Channel string
	Limit   int
}

func newGuildCommands() []*cobra.Command {
	members := &cobra.Command{
		Use:   "members",
		Short: "List the members of every guild the bot is in.",
		RunE:  membersCmdRun,
	}
	roles := &cobra.Command{
		Use:   "roles",
		Short: "List the roles of every guild the bot is in.",
		RunE:  rolesCmdRun,
	}
	channels := &cobra.Command{
		Use:   "channels",
		Short: "List the channels of every guild the bot is in.",
		RunE:  channelsCmdRun,
	}
	count := &cobra.Command{
		Use:   "member-count",
		Short: "Show how many members are online and offline.",
		RunE:  memberCountCmdRun,
	}
	ping := &cobra.Command{
		Use:   "ping",
		Short: "Show the latency between the bot and Discord.",
		RunE:  pingCmdRun,
	}
	info := &cobra.Command{
		Use:   "server-info",
		Short: "Show the guilds the bot is in.",
		RunE:  serverInfoCmdRun,
	}
	for _, c := range []*cobra.Command{members, roles, channels, count, ping, info} {
		addJSONFlag(c)
	}

	hello := &cobra.Command{
		Use:   "hello",
		Short: "Send a direct message to a member.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, c remote.Client) error {
				return printMessage(c.SendHello(ctx, guildArgs.Member, guildArgs.Message))
			})
		},
	}
	hello.Flags().StringVar(&guildArgs.Member, "member", "", "the id of the member")
	hello.Flags().StringVar(&guildArgs.Message, "message", "", "the message to send")
	_ = hello.MarkFlagRequired("member")
	_ = hello.MarkFlagRequired("message")

	giveRole := &cobra.Command{
		Use:   "give-role",
		Short: "Give a role to a member.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, c remote.Client) error {
				return printMessage(c.GiveMemberRole(ctx, guildArgs.User, guildArgs.Role))
			})
		},
	}
	giveRole.Flags().StringVar(&guildArgs.User, "user", "", "the id of the member")
	giveRole.Flags().StringVar(&guildArgs.Role, "role", "", "the id of the role")
	_ = giveRole.MarkFlagRequired("user")
	_ = giveRole.MarkFlagRequired("role")

	clearMessages := &cobra.Command{
		Use:   "clear",
		Short: "Delete the most recent messages of a channel.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, c remote.Client) error {
				return printMessage(c.ClearMessages(ctx, guildArgs.Channel, guildArgs.Limit))
			})
		},
	}
	clearMessages.Flags().StringVar(&guildArgs.Channel, "channel", "", "the id of the channel")
	clearMessages.Flags().IntVar(&guildArgs.Limit, "limit", 1, fmt.Sprintf("how many messages to delete, 1 to %d", remote.MaxClearLimit))
	_ = clearMessages.MarkFlagRequired("channel")

	return []*cobra.Command{members, roles, channels, count, ping, info, hello, giveRole, clearMessages}
}

func membersCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		members, err := c.FetchMembers(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, len(members))
		for i, m := range members {
			name := m.DisplayName
			if m.Bot {
				name += " [bot]"
			}
			rows[i] = []string{m.ID, name, m.Name, m.Status, strings.Join(m.Roles, ", ")}
		}
		return printTable(cmd, members, []string{"ID", "Display name", "Name", "Status", "Roles"}, rows)
	})
}

func rolesCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		roles, err := c.FetchRoles(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, len(roles))
		for i, r := range roles {
			rows[i] = []string{r.ID, r.Name, r.Color, strconv.Itoa(r.Position), strconv.FormatBool(r.Mentionable)}
		}
		return printTable(cmd, roles, []string{"ID", "Name", "Color", "Position", "Mentionable"}, rows)
	})
}

func channelsCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		channels, err := c.FetchChannels(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, len(channels))
		for i, ch := range channels {
			rows[i] = []string{ch.ID, ch.Name, ch.Type, strconv.Itoa(ch.Position), deref(ch.CategoryID)}
		}
		return printTable(cmd, channels, []string{"ID", "Name", "Type", "Position", "Category"}, rows)
	})
}

func memberCountCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		mc, err := c.FetchMemberCount(ctx)
		if err != nil {
			return err
		}
		if outputJSON(cmd) {
			return printJSON(mc)
		}
		fmt.Printf("%d online, %d offline, %d total\n", mc.Online, mc.Offline, mc.Total)
		return nil
	})
}

func pingCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		p, err := c.Ping(ctx)
		if err != nil {
			return err
		}
		if outputJSON(cmd) {
			return printJSON(p)
		}
		success("%s (latency %s)", p.Message, p.Latency)
		return nil
	})
}

func serverInfoCmdRun(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c remote.Client) error {
		guilds, err := c.FetchServerInfo(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, len(guilds))
		for i, g := range guilds {
			rows[i] = []string{g.ID, g.Name, strconv.Itoa(g.MemberCount), deref(g.OwnerID), deref(g.CreatedAt)}
		}
		return printTable(cmd, guilds, []string{"ID", "Name", "Members", "Owner", "Created"}, rows)
	})
}
