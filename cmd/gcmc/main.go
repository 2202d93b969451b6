package main

import (
	"flag"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/tarm/serial"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/config"
	"github.com/mastercactapus/gcmc/planner"
)

func main() {
	log.SetFlags(log.Lshortfile)

	cfgPath := flag.String("config", "machine.yaml", "Machine profile path.")
	port := flag.String("port", "", "Serial port path; stdin when empty.")
	baud := flag.Int("baud", 115200, "Serial baud rate.")
	addr := flag.String("addr", ":9091", "Address to bind the gCMC server to.")
	dir := flag.String("dir", "./data", "Data directory to use.")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if os.IsNotExist(err) {
		log.Printf("no profile at %s, using defaults", *cfgPath)
		cfg = config.Default()
		err = nil
	}
	if err != nil {
		log.Fatal(err)
	}

	q := planner.New(cfg.System.PlannerBuffers)
	q.OnCommand = func(cmd string) { log.Println("EXEC:", cmd) }

	m := canon.New(cfg.Settings(), q)

	ctl := newController(m, q, cfg, *cfgPath)
	go ctl.Run()

	var in io.Reader = os.Stdin
	if *port != "" {
		sp, err := serial.OpenPort(&serial.Config{Name: *port, Baud: *baud})
		if err != nil {
			log.Fatal(err)
		}
		defer sp.Close()
		in = sp
	}
	go ctl.ReadFrom(in)

	api := newAPI(ctl, *dir)

	err = http.ListenAndServe(*addr, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
		api.ServeHTTP(w, req)
	}))
	if err != nil {
		log.Fatal(err)
	}
}
