package dashboard

import "github.com/rotisserie/eris"

var errNoBootstrapper = eris.New("dashboard: no sample-data bootstrapper configured")
