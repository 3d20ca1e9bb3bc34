package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bwmarrin/discordgo"
	"github.com/glizzus/opusmux/internal/config"
	"github.com/glizzus/opusmux/internal/datalayer"
	"github.com/glizzus/opusmux/internal/generator"
	"github.com/glizzus/opusmux/internal/ogg"
	"github.com/glizzus/opusmux/internal/opus"
	"github.com/glizzus/opusmux/internal/playback"
	"github.com/glizzus/opusmux/internal/transcode"
	"github.com/urfave/cli/v2"
)

var (
	sessionIDs = generator.UUIDV4Generator{}
	serials    = generator.SerialGenerator{}
)

func loadEnv() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
			return nil
		}
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// openRecording opens --input from disk or --key from MinIO.
func openRecording(c *cli.Context) (io.ReadCloser, error) {
	if path := c.String("input"); path != "" {
		return os.Open(path)
	}
	key := c.String("key")
	if key == "" {
		return nil, cli.Exit("Please provide a recording using --input or --key", 1)
	}
	storage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create minio storage: %w", err)
	}
	return storage.Open(c.Context, key)
}

func newSession(opts ...transcode.Option) (*transcode.Session, error) {
	cfg, err := config.NewTranscodeConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load transcode config: %w", err)
	}
	id, err := sessionIDs.Next()
	if err != nil {
		return nil, err
	}
	return transcode.NewSession(id, *cfg, opts...)
}

var recordingFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Path of a WebM recording",
	},
	&cli.StringFlag{
		Name:  "key",
		Usage: "Key of a WebM recording in the MinIO bucket",
	},
}

func transcodeAction(c *cli.Context) error {
	src, err := openRecording(c)
	if err != nil {
		return err
	}
	defer src.Close()

	var opts []transcode.Option
	if path := c.String("output"); path != "" {
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer out.Close()

		serial, err := serials.Next()
		if err != nil {
			return err
		}
		opts = append(opts, transcode.WithOggOutput(out, serial))
	}
	if path := c.String("frames"); path != "" {
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create frame file: %w", err)
		}
		defer out.Close()
		opts = append(opts, transcode.WithFrameOutput(opus.NewFrameWriter(out)))
	}
	if len(opts) == 0 {
		return cli.Exit("Please provide --output or --frames", 1)
	}

	session, err := newSession(opts...)
	if err != nil {
		return err
	}
	stats, err := session.Run(c.Context, src)
	if err != nil {
		return cli.Exit("Transcode failed: "+err.Error(), 1)
	}
	log.Printf("%+v", stats)
	return nil
}

func inspectAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("Please provide an Ogg file to inspect", 1)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	headers, err := ogg.ReadHeaders(data)
	if err != nil {
		return cli.Exit("Invalid Ogg stream: "+err.Error(), 1)
	}
	for i, h := range headers {
		log.Printf("page %d: type=%#02x granule=%d serial=%#08x packets=%d",
			i, h.Type, h.GranulePosition, h.SerialNumber, len(h.PacketSizes()))
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	packets, err := ogg.ReadPackets(f)
	if err != nil {
		return cli.Exit("Failed to read packets: "+err.Error(), 1)
	}
	if len(packets) == 0 {
		return cli.Exit("Stream has no packets", 1)
	}
	head, err := ogg.ParseOpusHead(packets[0])
	if err != nil {
		return cli.Exit("Invalid OpusHead: "+err.Error(), 1)
	}
	log.Printf("%+v", head)
	log.Printf("%d audio packets", max(len(packets)-2, 0))
	return nil
}

func playAction(c *cli.Context) error {
	discordCfg, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}

	dg, err := discordgo.New("Bot " + discordCfg.Token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := dg.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	channelID := discordCfg.ChannelID
	if channelID == "" {
		channels, err := dg.GuildChannels(discordCfg.GuildID)
		if err != nil {
			return fmt.Errorf("failed to get guild channels: %w", err)
		}
		channel := playback.MaxAttendedChannel(channels)
		if channel == nil {
			return cli.Exit("No voice channel found", 1)
		}
		channelID = channel.ID
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	return playback.WithVoiceChannel(dg, discordCfg.GuildID, channelID, func(_ *discordgo.Session, vc *discordgo.VoiceConnection) error {
		player := playback.NewVoicePlayer(vc, playback.DefaultSendTimeout)

		if path := c.String("frames"); path != "" {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			return playback.PlayFrames(ctx, opus.NewFrameReader(f), player)
		}

		src, err := openRecording(c)
		if err != nil {
			return err
		}
		defer src.Close()
		session, err := newSession(transcode.WithPlayer(player))
		if err != nil {
			return err
		}
		_, err = session.Run(ctx, src)
		return err
	})
}

func listAction(c *cli.Context) error {
	storage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		return fmt.Errorf("failed to create minio storage: %w", err)
	}
	recordings, err := storage.List(c.Context, c.String("prefix"))
	if err != nil {
		return cli.Exit("Failed to list recordings: "+err.Error(), 1)
	}
	if len(recordings) == 0 {
		log.Println("No recordings found.")
		return nil
	}
	for _, r := range recordings {
		log.Printf("%s\t%d", r.Key, r.Size)
	}
	return nil
}

func main() {
	if err := loadEnv(); err != nil {
		log.Fatal(err)
	}

	app := &cli.App{
		Name:        "opusmux",
		Description: "Turns WebM audio recordings into Ogg Opus streams and Discord voice",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "transcode",
				Usage:  "Convert a WebM recording to Ogg Opus or a frame file",
				Action: transcodeAction,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the Ogg Opus file to write",
					},
					&cli.StringFlag{
						Name:  "frames",
						Usage: "Path of the length prefixed frame file to write",
					},
				}, recordingFlags...),
			},
			{
				Name:      "inspect",
				Usage:     "Print the pages and OpusHead of an Ogg Opus file",
				ArgsUsage: "FILE",
				Action:    inspectAction,
			},
			{
				Name:   "play",
				Usage:  "Play a recording or frame file into a Discord voice channel",
				Action: playAction,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "frames",
						Usage: "Path of a frame file to play instead of a recording",
					},
				}, recordingFlags...),
			},
			{
				Name:   "list",
				Usage:  "List the recordings in the MinIO bucket",
				Action: listAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Only list keys with this prefix",
					},
				},
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Fatalf("Error running opusmux: %v", err)
	}
}
