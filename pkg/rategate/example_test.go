package rategate_test

import (
	"fmt"
	"time"

	"github.com/clayv/RateGate/pkg/rategate"
)

func ExampleGate_TryProceed() {
	gate, err := rategate.New(2, time.Minute)
	if err != nil {
		panic(err)
	}
	defer gate.Close()

	for i := 0; i < 3; i++ {
		ok, _ := gate.TryProceed()
		fmt.Println(ok)
	}
	// Output:
	// true
	// true
	// false
}
