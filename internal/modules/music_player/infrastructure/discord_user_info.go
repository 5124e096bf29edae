package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

var _ ports.RequesterLookup = (*DiscordRequesterLookup)(nil)

// memberFetcher fetches a guild member, from the state cache or the REST API.
type memberFetcher func(guildID, userID string) (*discordgo.Member, error)

// DiscordRequesterLookup implements ports.RequesterLookup using a Discord session.
type DiscordRequesterLookup struct {
	fetch memberFetcher
}

// NewDiscordRequesterLookup creates a new DiscordRequesterLookup.
// Members are read from the state cache before falling back to the API.
func NewDiscordRequesterLookup(session *discordgo.Session) *DiscordRequesterLookup {
	return &DiscordRequesterLookup{
		fetch: func(guildID, userID string) (*discordgo.Member, error) {
			if session.State != nil {
				if member, err := session.State.Member(guildID, userID); err == nil {
					return member, nil
				}
			}
			return session.GuildMember(guildID, userID)
		},
	}
}

// LookupRequester fetches display info for a user in a guild.
func (p *DiscordRequesterLookup) LookupRequester(guildID, userID snowflake.ID) (*ports.Requester, error) {
	member, err := p.fetch(guildID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	if member.User == nil {
		return nil, fmt.Errorf("guild member %s has no user", userID)
	}

	return &ports.Requester{
		DisplayName: displayName(member),
		AvatarURL:   member.AvatarURL(""),
	}, nil
}

// displayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
