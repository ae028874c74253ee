package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/user/movie-planner-go/internal/model"
	"github.com/user/movie-planner-go/internal/server"
	"github.com/user/movie-planner-go/internal/store"
)

// maxCaptionLength is the Telegram limit on photo captions
const maxCaptionLength = 1024

// Handler handles Telegram bot commands
type Handler struct {
	tools       *server.Toolbox
	store       *store.Store
	messenger   Messenger
	resultLimit int
	startTime   time.Time
}

// NewHandler creates a new command handler. List commands return at most resultLimit movies.
func NewHandler(tools *server.Toolbox, st *store.Store, messenger Messenger, resultLimit int) *Handler {
	return &Handler{
		tools:       tools,
		store:       st,
		messenger:   messenger,
		resultLimit: resultLimit,
		startTime:   time.Now(),
	}
}

// HandleUpdate processes an incoming Telegram update. Only commands are answered.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	msg := update.Message
	h.handleCommand(ctx, msg.Chat.ID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
}

// handleCommand routes commands to their respective handlers
func (h *Handler) handleCommand(ctx context.Context, chatID int64, command, args string) {
	log.Info().
		Int64("chatID", chatID).
		Str("command", command).
		Str("args", args).
		Msg("Received command")

	switch command {
	case "start", "help":
		h.handleHelp(chatID)
	case "search":
		h.handleSearch(ctx, chatID, args)
	case "details", "movie":
		h.handleDetails(ctx, chatID, args)
	case "recommend":
		h.handleRecommend(ctx, chatID, args)
	case "actor":
		h.handleActor(ctx, chatID, args)
	case "similar":
		h.handleSimilar(ctx, chatID, args)
	case "playlist":
		h.handlePlaylist(ctx, chatID, args)
	case "status":
		h.handleStatus(chatID)
	default:
		h.sendError(chatID, "Unknown command. Use /help to see available commands.")
	}
}

func (h *Handler) handleHelp(chatID int64) {
	helpText := `🎬 *Movie Planner Help*

*Lookup:*
/search title \- Search titles
/details title \- Cast, crew and keywords of a movie
/actor name \- Best rated movies of an actor
/similar title \- Movies sharing keywords

*Planning:*
/recommend genre\=Drama,Crime min\_vote\=7 from\=1990 to\=2000 lang\=en cast\=Al Pacino
/playlist minutes\=300 genre\=Comedy lang\=en \[popular\]

/status \- Dataset statistics

_All options are optional\. Names and genres are case insensitive\._`

	h.reply(chatID, helpText)
}

func (h *Handler) handleSearch(ctx context.Context, chatID int64, query string) {
	if query == "" {
		h.sendError(chatID, "Please provide a title. Example: /search star wars")
		return
	}
	records, ok := h.callList(ctx, chatID, server.ToolSearch, server.SearchParams{Query: query, Limit: h.resultLimit})
	if !ok {
		return
	}
	h.reply(chatID, FormatRecordList("Search: "+query, records))
}

func (h *Handler) handleDetails(ctx context.Context, chatID int64, title string) {
	if title == "" {
		h.sendError(chatID, "Please provide a title. Example: /details Toy Story")
		return
	}
	result, ok := h.call(ctx, chatID, server.ToolDetails, server.DetailsParams{Title: title})
	if !ok {
		return
	}

	details, _ := result.(*model.Details)
	if details == nil {
		h.reply(chatID, fmt.Sprintf("📭 No movie found for: %s", EscapeMarkdown(title)))
		return
	}

	text := FormatDetails(details)
	if poster := PosterURL(details.Record); poster != "" && utf8.RuneCountInString(text) <= maxCaptionLength {
		err := h.messenger.SendPhoto(chatID, poster, text)
		if err == nil {
			return
		}
		log.Warn().Err(err).Int64("chatID", chatID).Msg("Failed to send poster, falling back to text")
	}
	h.reply(chatID, text)
}

func (h *Handler) handleRecommend(ctx context.Context, chatID int64, args string) {
	params, err := ParseRecommendArgs(args, h.resultLimit)
	if err != nil {
		h.sendError(chatID, err.Error())
		return
	}
	records, ok := h.callList(ctx, chatID, server.ToolRecommend, params)
	if !ok {
		return
	}
	h.reply(chatID, FormatRecordList("Recommendations", records))
}

func (h *Handler) handleActor(ctx context.Context, chatID int64, actor string) {
	if actor == "" {
		h.sendError(chatID, "Please provide an actor name. Example: /actor Tom Hanks")
		return
	}
	records, ok := h.callList(ctx, chatID, server.ToolTopByActor, server.TopByActorParams{Actor: actor, Limit: h.resultLimit})
	if !ok {
		return
	}
	h.reply(chatID, FormatRecordList("Top movies: "+actor, records))
}

func (h *Handler) handleSimilar(ctx context.Context, chatID int64, title string) {
	if title == "" {
		h.sendError(chatID, "Please provide an exact title. Example: /similar The Matrix")
		return
	}
	records, ok := h.callList(ctx, chatID, server.ToolSimilar, server.SimilarParams{Title: title, Limit: h.resultLimit})
	if !ok {
		return
	}
	h.reply(chatID, FormatRecordList("Similar to: "+title, records))
}

func (h *Handler) handlePlaylist(ctx context.Context, chatID int64, args string) {
	params, err := ParsePlaylistArgs(args)
	if err != nil {
		h.sendError(chatID, err.Error())
		return
	}
	result, ok := h.call(ctx, chatID, server.ToolPlaylist, params)
	if !ok {
		return
	}
	playlist, _ := result.(model.Playlist)
	h.reply(chatID, FormatPlaylist(playlist))
}

func (h *Handler) handleStatus(chatID int64) {
	counts := h.store.Counts()

	lines := []string{
		"📊 *Dataset Status*\n",
		fmt.Sprintf("🎬 Movies: %d", counts[store.TableMovies]),
		fmt.Sprintf("👥 Credits: %d", counts[store.TableCredits]),
		fmt.Sprintf("🏷 Keywords: %d", counts[store.TableKeywords]),
		fmt.Sprintf("⭐ Ratings: %d", counts[store.TableRatings]),
		fmt.Sprintf("⏱ Uptime: %s", formatDuration(time.Since(h.startTime))),
		fmt.Sprintf("🕐 Started: %s", h.startTime.Format("2006\\-01\\-02 15:04:05")),
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

// call runs a tool and reports any failure to the chat
func (h *Handler) call(ctx context.Context, chatID int64, tool string, params any) (any, bool) {
	result, err := h.tools.CallWith(ctx, tool, params)
	if err != nil {
		h.sendError(chatID, describeError(err))
		return nil, false
	}
	return result, true
}

func (h *Handler) callList(ctx context.Context, chatID int64, tool string, params any) ([]model.Record, bool) {
	result, ok := h.call(ctx, chatID, tool, params)
	if !ok {
		return nil, false
	}
	records, _ := result.([]model.Record)
	return records, true
}

// describeError turns a tool error into a message fit for a chat
func describeError(err error) string {
	var verr *server.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, server.ErrToolTimeout):
		return "That query took too long. Try narrowing it down."
	default:
		return "Something went wrong. Please try again."
	}
}

func (h *Handler) reply(chatID int64, text string) {
	if err := h.messenger.SendMarkdown(chatID, text); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send reply")
	}
}

func (h *Handler) sendError(chatID int64, message string) {
	if err := h.messenger.SendMessage(chatID, "❌ "+message); err != nil {
		log.Error().Err(err).Int64("chatID", chatID).Msg("Failed to send error message")
	}
}

// formatDuration formats a duration into a human-readable string
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
