package distvec_test

import (
	"fmt"

	"github.com/hupe1980/distvec"
	"github.com/hupe1980/distvec/comm"
	"github.com/hupe1980/distvec/engine"
)

func Example() {
	err := comm.Run(2, func(c *comm.Communicator) error {
		eng := engine.NewInProc[float64](c)

		v, err := distvec.NewPartitioned(eng, 10, 5)
		if err != nil {
			return err
		}
		defer v.Clear()

		if err := v.AddScalar(1); err != nil {
			return err
		}
		if err := v.Close(); err != nil {
			return err
		}

		sum, err := v.Sum()
		if err != nil {
			return err
		}
		if c.Rank() == 0 {
			fmt.Printf("sum = %v\n", sum)
		}
		return nil
	})
	if err != nil {
		fmt.Println("error:", err)
	}
	// Output: sum = 10
}

func ExampleVector_Get() {
	eng := engine.NewInProc[float64](comm.Self())

	v, err := distvec.NewSized(eng, 3)
	if err != nil {
		panic(err)
	}
	defer v.Clear()

	_ = v.Set(1, 2.5)
	_ = v.Close()

	x, _ := v.Get(1)
	fmt.Println(x)
	// Output: 2.5
}

func ExampleVector_GetArray() {
	eng := engine.NewInProc[float64](comm.Self())

	v, err := distvec.NewSized(eng, 4)
	if err != nil {
		panic(err)
	}
	defer v.Clear()

	arr, err := v.GetArray()
	if err != nil {
		panic(err)
	}
	for i := range arr {
		arr[i] = float64(i)
	}
	if err := v.RestoreArray(); err != nil {
		panic(err)
	}

	sum, _ := v.Sum()
	fmt.Println(sum)
	// Output: 6
}
