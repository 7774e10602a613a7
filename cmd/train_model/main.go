package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"

	"modelserve/ml"
)

func main() {
	dataPath := flag.String("data", "", "CSV file, last column is the integer label")
	header := flag.Bool("header", true, "skip the first CSV line")
	flavor := flag.String("flavor", ml.FlavorLogisticRegression, "decision_tree or logistic_regression")
	modelDir := flag.String("model_dir", "./model", "model output directory")
	maxDepth := flag.Int("max_depth", 10, "max tree depth")
	epochs := flag.Int("epochs", 500, "logistic regression epochs")
	learningRate := flag.Float64("learning_rate", 0.1, "logistic regression learning rate")
	l2 := flag.Float64("l2", 0, "logistic regression L2 penalty")
	testRatio := flag.Float64("test_ratio", 0.2, "test ratio")
	seed := flag.Int64("seed", time.Now().UnixNano(), "shuffle seed")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("data is required")
	}

	file, err := os.Open(*dataPath)
	if err != nil {
		log.Fatalf("failed to open data: %v", err)
	}
	features, labels, err := ml.ReadCSV(file, *header)
	file.Close()
	if err != nil {
		log.Fatalf("failed to read data: %v", err)
	}

	trainX, trainY, testX, testY := ml.SplitDataset(features, labels, *testRatio, rand.New(rand.NewSource(*seed)))

	var (
		model ml.TrainableClassifier
		bar   *pb.ProgressBar
	)
	switch *flavor {
	case ml.FlavorDecisionTree:
		model = ml.NewDecisionTree(*maxDepth)
	case ml.FlavorLogisticRegression:
		lr := ml.NewLogisticRegression(*learningRate, *epochs)
		lr.L2 = *l2
		bar = pb.StartNew(lr.Epochs)
		lr.OnEpoch = func(epoch int, loss float64) {
			bar.Set("prefix", fmt.Sprintf("loss %.4f ", loss))
			bar.Increment()
		}
		model = lr
	default:
		log.Fatalf("unsupported flavor %q", *flavor)
	}

	err = model.Train(trainX, trainY)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.Fatalf("failed to train model: %v", err)
	}

	log.Printf("train accuracy=%.3f test accuracy=%.3f (%d/%d rows)",
		ml.Accuracy(model, trainX, trainY), ml.Accuracy(model, testX, testY), len(trainX), len(testX))

	if err := ml.SaveModel(*modelDir, model); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}

	fmt.Printf("model saved to %s\n", *modelDir)
}
