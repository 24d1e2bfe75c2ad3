package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/noah-isme/enrollment-gate/internal/models"
)

// embedColor is the sidebar colour of offering announcements.
const embedColor = 0x2E8B57

type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
}

// Discord announces new course offerings in a staff channel.
type Discord struct {
	session   embedSender
	channelID string
	formURL   string
}

// NewDiscord opens a REST-only bot session. No gateway connection is made since
// the bot only posts messages.
func NewDiscord(token, channelID, formURL string) (*Discord, error) {
	if token == "" || channelID == "" {
		return nil, errors.New("notify: discord token and channel are required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notify: connecting to discord: %w", err)
	}
	return newDiscord(session, channelID, formURL), nil
}

func newDiscord(session embedSender, channelID, formURL string) *Discord {
	return &Discord{session: session, channelID: channelID, formURL: formURL}
}

// Notify posts one embed per event. It matches service.OfferingsListener.
func (d *Discord) Notify(ctx context.Context, event models.NewOfferingsEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	noun := "offerings"
	if event.Delta == 1 {
		noun = "offering"
	}
	embed := &discordgo.MessageEmbed{
		URL:         d.formURL,
		Title:       fmt.Sprintf("%d new course %s published", event.Delta, noun),
		Description: fmt.Sprintf("%d offerings are now listed.", event.Total),
		Color:       embedColor,
		Timestamp:   event.DetectedAt.UTC().Format(time.RFC3339),
	}
	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return fmt.Errorf("notify: sending discord message: %w", err)
	}
	return nil
}
