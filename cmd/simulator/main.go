package main

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/smartwatt/plan-advisor/internal/config"
)

type usageReading struct {
	UserID string    `json:"user_id"`
	Month  time.Time `json:"month"`
	KWH    float64   `json:"kwh"`
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	// Two years of seasonal usage: a summer cooling peak on an 800 kWh base,
	// plus a little noise.
	start := time.Date(time.Now().Year()-2, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24; i++ {
		month := start.AddDate(0, i, 0)
		seasonal := 250 * math.Sin(2*math.Pi*(float64(month.Month())-4)/12)
		r := usageReading{
			UserID: "user-001",
			Month:  month,
			KWH:    800 + seasonal + rand.Float64()*50,
		}
		payload, _ := json.Marshal(r)
		token := client.Publish("energy/usage/monthly", 0, false, payload)
		token.Wait()
		time.Sleep(100 * time.Millisecond)
	}
	log.Info().Msg("simulation done")
}
