package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkg "git.solsynth.dev/hypernet/conduit/pkg/internal"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/config"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/database"
	"git.solsynth.dev/hypernet/conduit/pkg/internal/http"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Booting screen
	fmt.Println(color.YellowString("  ____                _       _ _\n / ___|___  _ __   __| |_   _(_) |_\n| |   / _ \\| '_ \\ / _` | | | | | __|\n| |__| (_) | | | | (_| | |_| | | |_\n \\____\\___/|_| |_|\\__,_|\\__,_|_|\\__|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("Conduit"), pkg.AppVersion)
	fmt.Printf("The blogging platform backend\n")
	color.HiBlack("=====================================================\n")

	// Load settings
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when loading settings.")
	}
	if viper.GetBool("debug.print_routes") || viper.GetBool("debug.database") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Connect to database
	db, err := database.NewGorm()
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.Ping(db); err != nil {
		log.Fatal().Err(err).Msg("Unable to reach the database.")
	}
	log.Info().Str("dialect", viper.GetString("database.dialect")).Msg("Connected to database.")

	// Declare relations before migrating, the join tables depend on it
	if err := database.DeclareRelations(db); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when declaring database relations.")
	} else if err := database.RunMigration(db); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Server
	server := http.NewServer(db)
	go func() {
		if err := server.Listen(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when starting server...")
		}
	}()

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	if err := server.Shutdown(); err != nil {
		log.Error().Err(err).Msg("An error occurred when shutting down server.")
	}
	if err := database.Close(db); err != nil {
		log.Error().Err(err).Msg("An error occurred when closing database.")
	}
}
