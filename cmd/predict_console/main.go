package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/exp/rand"

	"modelserve/client"
	"modelserve/ml"
)

func main() {
	err := mainImpl()
	if err != nil {
		panic(err)
	}
}

func mainImpl() error {
	addr := flag.String("addr", "http://localhost:5000", "prediction server base URL")
	flag.Parse()

	c := client.New(*addr)
	schema, err := c.Schema(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("model %s expects %d features. Enter comma-separated numbers, :random or :quit.\n",
		schema.ModelType, schema.NumFeatures)

	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()
	src := rand.NewSource(uint64(time.Now().UnixNano()))
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF
			break
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ":quit":
			return nil
		case ":random":
			values := ml.RandomSample(schema.NumFeatures, src)
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = fmt.Sprint(v)
			}
			line = strings.Join(parts, ",")
			fmt.Println(line)
		}

		tokens := ml.SplitFeatureText(line)
		features := make([]any, len(tokens))
		for i, t := range tokens {
			features[i] = t
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		prediction, err := c.Predict(ctx, features)
		cancel()
		if err != nil {
			fmt.Println(err)
			continue
		}
		if prediction.PositiveProbability != nil {
			fmt.Printf("prediction=%d prob_pos=%.4f\n", prediction.Label, *prediction.PositiveProbability)
		} else {
			fmt.Printf("prediction=%d\n", prediction.Label)
		}
	}
	return nil
}
