// cmd/dlq inspects and replays the dead letter lists of the job queues.
// Uso: go run ./cmd/dlq                   (sizes)
//
//	go run ./cmd/dlq replay jobs:email 50
package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/JoaquinRodriguez332/gesticom/internal/config"
	"github.com/JoaquinRodriguez332/gesticom/internal/infra"
	"github.com/JoaquinRodriguez332/gesticom/internal/worker"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}
	defer rdb.Close()
	ctx := context.Background()

	args := os.Args[1:]
	if len(args) == 0 {
		for _, q := range worker.Queues {
			n, err := worker.DLQLength(ctx, rdb, q)
			if err != nil {
				log.Fatal().Err(err).Str("queue", q).Msg("dlq length")
			}
			fmt.Printf("%-16s %d\n", q, n)
		}
		return
	}

	if len(args) < 2 || args[0] != "replay" || !slices.Contains(worker.Queues, args[1]) {
		fmt.Fprintf(os.Stderr, "uso: dlq [replay <%v> [limite]]\n", worker.Queues)
		os.Exit(2)
	}
	limit := 100
	if len(args) > 2 {
		if limit, err = strconv.Atoi(args[2]); err != nil || limit <= 0 {
			fmt.Fprintln(os.Stderr, "limite invalido")
			os.Exit(2)
		}
	}
	moved, err := worker.Replay(ctx, rdb, args[1], limit)
	if err != nil {
		log.Fatal().Err(err).Int("moved", moved).Msg("replay")
	}
	fmt.Printf("%d trabajos reencolados en %s\n", moved, args[1])
}
