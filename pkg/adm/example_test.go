package adm_test

import (
	"fmt"
	"time"

	"github.com/matzehuels/sadm/pkg/adm"
)

func ExampleDocument() {
	doc := adm.NewDocument()
	obj, _ := adm.NewEntity("AO_1001", "Narrator")
	pack, _ := adm.NewEntity("AP_00031001", "Narrator")
	_ = obj.AddReference(pack.ID())
	_ = doc.Add(obj)

	fmt.Println("valid:", doc.Validate() == nil)
	_ = doc.Add(pack)
	fmt.Println("valid:", doc.Validate() == nil)
	fmt.Println("pack type:", pack.TypeDefinition)
	// Output:
	// valid: false
	// valid: true
	// pack type: Objects
}

func ExampleParseTimecode() {
	d, _ := adm.ParseTimecode("00:00:02.25")
	fmt.Println(d)
	fmt.Println(adm.FormatTimecode(d + 500*time.Millisecond))
	// Output:
	// 2.25s
	// 00:00:02.750000000
}
