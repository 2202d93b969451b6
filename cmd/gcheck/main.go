// gcheck runs a G-code program through an independent VM and dumps
// the resulting machine state, as a quick sanity check of a program
// before sending it to the controller.
package main

import (
	"flag"
	"io/ioutil"
	"log"
	"os"

	"github.com/joushou/gocnc/gcode"
	"github.com/joushou/gocnc/vm"
)

func main() {
	log.SetFlags(log.Lshortfile)
	flag.Parse()

	data, err := ioutil.ReadAll(os.Stdin)
	if flag.NArg() > 0 {
		data, err = ioutil.ReadFile(flag.Arg(0))
	}
	if err != nil {
		log.Fatal(err)
	}

	doc, err := gcode.Parse(string(data))
	if err != nil {
		log.Fatal(err)
	}

	var m vm.Machine
	m.Init()
	m.Process(doc)
	m.Dump()
}
