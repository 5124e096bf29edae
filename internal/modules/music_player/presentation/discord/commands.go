package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "join",
			Description: "Join a voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Voice channel to join (defaults to your current channel)",
					Required:    false,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildVoice,
						discordgo.ChannelTypeGuildStageVoice,
					},
				},
			},
		},
		{
			Name:        "leave",
			Description: "Leave the voice channel",
		},
		{
			Name:        "play",
			Description: "Play a song, link or playlist, or resume playback",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "song_or_url",
					Description:  "Song to search for, or a link to a track or playlist",
					Required:     false,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "song",
			Description: "Search YouTube Music for a song",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "song",
					Description:  "Song title",
					Required:     true,
					Autocomplete: true,
				},
			},
		},
		{
			Name:        "video",
			Description: "Play a video from a link or a YouTube search",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query_or_url",
					Description: "Search term or link",
					Required:    true,
				},
			},
		},
		{
			Name:        "album",
			Description: "Search YouTube Music for an album and queue all of its tracks",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "album",
					Description: "Album title",
					Required:    true,
				},
			},
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "skip",
			Description: "Skip the current track",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
		},
		{
			Name:        "list",
			Description: "Show the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "start",
					Description: "Position to list from, or \"end\" for the last page",
					Required:    false,
				},
			},
		},
		{
			Name:        "remove",
			Description: "Remove tracks from the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionInteger,
					Name:         "track",
					Description:  "Position of the track to remove (as shown in /list)",
					Required:     true,
					MinValue:     floatPtr(1),
					Autocomplete: true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionInteger,
					Name:         "track_end",
					Description:  "Remove every track from track up to this position",
					Required:     false,
					MinValue:     floatPtr(1),
					Autocomplete: true,
				},
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
