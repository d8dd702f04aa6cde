package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/text/currency"

	"premiumcalc/ml"
	"premiumcalc/quote"
)

func main() {
	modelPath := flag.String("model_path", ml.DefaultModelPath, "model artifact (.json, .yaml or .db)")
	exportPath := flag.String("export_sqlite", "", "also write the model to this SQLite file")
	age := flag.Int("age", 40, "driver age for the sample quote")
	vehicleAge := flag.Int("vehicle_age", 5, "vehicle age for the sample quote")
	location := flag.String("location", string(ml.Urban), "garaging location for the sample quote")
	rate := flag.Float64("rate", quote.DefaultRate, "units of -currency per USD")
	code := flag.String("currency", quote.SecondaryCurrency, "ISO 4217 code of the converted premium")
	flag.Parse()

	model, err := ml.NewLoader().Load(*modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	info := ml.Describe(model)
	info.Path = *modelPath
	out, _ := json.MarshalIndent(info, "", "  ")
	fmt.Println(string(out))

	loc, err := ml.ParseLocation(*location)
	if err != nil {
		log.Fatalf("invalid sample input: %v", err)
	}
	unit, err := currency.ParseISO(*code)
	if err != nil {
		log.Fatalf("invalid currency %q: %v", *code, err)
	}
	svc, err := quote.NewService(model, quote.Options{Rate: *rate, Currency: unit.String()})
	if err != nil {
		log.Fatalf("model rejected: %v", err)
	}
	q, err := svc.Quote(ml.RiskInput{Age: *age, VehicleAge: *vehicleAge, Location: loc})
	if err != nil {
		log.Fatalf("sample quote failed: %v", err)
	}
	fmt.Printf("sample %+v -> %s / %s\n", q.Input, q.USDDisplay(), q.UGXDisplay())

	if *exportPath != "" {
		gbm, ok := model.(*ml.GBMRegressor)
		if !ok {
			log.Fatal("only gbm_regressor models can be exported")
		}
		if err := ml.WriteSQLite(*exportPath, gbm); err != nil {
			log.Fatalf("failed to export model: %v", err)
		}
		fmt.Fprintf(os.Stderr, "model exported to %s\n", *exportPath)
	}
}
