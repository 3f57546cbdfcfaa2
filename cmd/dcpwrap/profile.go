//go:build profile

/*
NAME
  profile.go

DESCRIPTION
  profile.go sets canProfile when dcpwrap is built with the profile tag.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import _ "net/http/pprof"

func init() {
	canProfile = true
}
