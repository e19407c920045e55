package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"piqle_tournament/config"
	"piqle_tournament/db"
	"piqle_tournament/engine"
	"piqle_tournament/models"
)

// Seeds a demo MLP division with full rosters.
// Assuming running from root: go run ./cmd/seed -teams 10 -rr
func main() {
	teams := flag.Int("teams", 10, "number of teams to create")
	pools := flag.Int("pools", 0, "number of round robin pools, 0 for a single table")
	generate := flag.Bool("rr", false, "generate the round robin after seeding")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := db.InitDB(cfg, log); err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}

	ctx := context.Background()
	eng := engine.New(db.DB, log)

	div, err := eng.CreateDivision(ctx, engine.DivisionInput{
		Name:     "Mock MLP Division " + time.Now().Format("15:04"),
		Format:   models.FormatMLP,
		TeamKind: "MLP_4",
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create division")
	}
	log.WithField("division_id", div.ID).Info("Created division")

	var poolIDs []uint
	for i := 0; i < *pools; i++ {
		p, err := eng.AddPool(ctx, div.ID, engine.PoolInput{Name: fmt.Sprintf("Pool %c", 'A'+i)})
		if err != nil {
			log.WithError(err).Fatal("failed to create pool")
		}
		poolIDs = append(poolIDs, p.ID)
	}

	for i := 1; i <= *teams; i++ {
		in := engine.TeamInput{
			Name: fmt.Sprintf("Team_%d", i),
			Players: []engine.PlayerInput{
				{FirstName: fmt.Sprintf("Ava_%d", i), LastName: "Demo", Gender: models.GenderFemale},
				{FirstName: fmt.Sprintf("Bea_%d", i), LastName: "Demo", Gender: models.GenderFemale},
				{FirstName: fmt.Sprintf("Cole_%d", i), LastName: "Demo", Gender: models.GenderMale},
				{FirstName: fmt.Sprintf("Dev_%d", i), LastName: "Demo", Gender: models.GenderMale},
			},
		}
		if len(poolIDs) > 0 {
			in.PoolID = &poolIDs[(i-1)%len(poolIDs)]
		}
		if _, err := eng.AddTeam(ctx, div.ID, in); err != nil {
			log.WithError(err).Fatal("failed to create team")
		}
	}
	log.WithField("teams", *teams).Info("Added teams with MLP rosters")

	if *generate {
		if _, err := eng.GenerateRoundRobin(ctx, div.ID); err != nil {
			log.WithError(err).Fatal("failed to generate round robin")
		}
		log.Info("Round robin generated")
	}
	log.Info("Seeding Complete. Restart backend if needed.")
}
